package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParse(t *testing.T) {
	assert.Equal(t, language.Und, Parse(""))
	assert.Equal(t, language.Und, Parse("C"))
	assert.Equal(t, language.Und, Parse("POSIX.UTF-8"))
	assert.Equal(t, "ko-KR", Parse("ko_KR.UTF-8").String())
	assert.Equal(t, "en-US", Parse("en_US@euro").String())
}

func TestCanonical(t *testing.T) {
	got, ok := Canonical("de_DE.UTF-8")
	require.True(t, ok)
	assert.Equal(t, "de-DE", got)

	_, ok = Canonical("C")
	assert.False(t, ok)
}

func TestMatcher_TranslatesBuiltin(t *testing.T) {
	m, err := New("ko_KR.UTF-8", nil)
	require.NoError(t, err)

	assert.Equal(t, "새 비밀번호: ", m.Translate(NewPasswordPrompt))
	assert.Equal(t, []string{CurrentPasswordPrompt, "현재 비밀번호: "}, Forms(m, CurrentPasswordPrompt))
}

func TestMatcher_ExtraOverridesAndUnknownKeys(t *testing.T) {
	m, err := New("fr_FR", map[string]map[string]string{
		"fr": {NewPasswordPrompt: "Nouveau mot de passe : "},
	})
	require.NoError(t, err)

	assert.True(t, ContainsAny(m, "Nouveau mot de passe : ", NewPasswordPrompt))
	assert.True(t, ContainsAny(m, "(current) New password: ", NewPasswordPrompt))
	assert.Equal(t, "untouched", m.Translate("untouched"))
}

func TestUntranslated(t *testing.T) {
	m := Untranslated()
	assert.Equal(t, []string{RetypePasswordPrompt}, Forms(m, RetypePasswordPrompt))
	assert.Equal(t, []string{"x"}, Forms(nil, "x"))
}
