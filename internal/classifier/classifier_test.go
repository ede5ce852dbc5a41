package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/rorigreet/internal/locale"
	"github.com/Rorical/rorigreet/internal/models"
)

func classify(t *testing.T, text string) Directive {
	t.Helper()
	d, ok := New(locale.Untranslated()).Match(text)
	require.True(t, ok, "no rule matched %q", text)
	return d
}

func TestTemporaryPassword_PrefixIgnoresTail(t *testing.T) {
	for _, text := range []string{"Temporary Password", "Temporary Password: extra junk"} {
		d := classify(t, text)
		req, ok := d.(ConfirmRequest)
		require.True(t, ok, "%q: got %T", text, d)
		assert.Equal(t, "temporary-password", req.Rule)
		assert.Equal(t, ReplyChangePasswordYes, req.CannedYes)
		assert.Equal(t, ReplyChangePasswordNo, req.CannedNo)
	}
}

func TestPasswordMaxday_Pluralization(t *testing.T) {
	one := classify(t, "Password Maxday Warning:1").(ConfirmRequest)
	assert.Contains(t, one.Body, "within 1 day,")

	three := classify(t, "Password Maxday Warning:3").(ConfirmRequest)
	assert.Contains(t, three.Body, "within 3 days,")

	bare := classify(t, "Password Maxday Warning").(ConfirmRequest)
	assert.Contains(t, bare.Body, "within a few days,")

	junk := classify(t, "Password Maxday Warning:soon").(ConfirmRequest)
	assert.Contains(t, junk.Body, "within a few days,")

	assert.Equal(t, "Change now", one.YesLabel)
	assert.Equal(t, "Later", one.NoLabel)
}

func TestAccountExpirationWarning_Continuable(t *testing.T) {
	d := classify(t, "Account Expiration Warning:1:5")
	n, ok := d.(Notice)
	require.True(t, ok, "got %T", d)
	assert.Equal(t, ReplyAccountExpiryOK, n.CannedAck)
	assert.Contains(t, n.Body, "after 1.")
	assert.Contains(t, n.Body, "expire in 5 days.")

	single := classify(t, "Account Expiration Warning:2030-01-01:1").(Notice)
	assert.Contains(t, single.Body, "expire in 1 day.")

	bare := classify(t, "Account Expiration Warning").(Notice)
	assert.Equal(t, ReplyAccountExpiryOK, bare.CannedAck)
	assert.Contains(t, bare.Body, "will expire soon")
}

func TestExpirationWarnings_Replies(t *testing.T) {
	cases := map[string]string{
		"Division Expiration Warning:2030-01-01:3": ReplyDivisionExpiryOK,
		"Password Expiration Warning:2030-01-01:3": ReplyPasswordExpiryOK,
		"Trial Period Warning:30:2":                ReplyTrialLoginOK,
		"Duplicate Login Notification:id":          ReplyDuplicateLoginOK,
	}
	for text, reply := range cases {
		n, ok := classify(t, text).(Notice)
		require.True(t, ok, text)
		assert.Equal(t, reply, n.CannedAck, text)
	}
}

func TestAccountLocking_Terminal(t *testing.T) {
	d := classify(t, "Account Locking")
	e, ok := d.(Error)
	require.True(t, ok)
	assert.True(t, e.Terminal)
	assert.Equal(t, "account-locking", e.Rule)
}

func TestTerminalFlags(t *testing.T) {
	terminal := []string{
		"Deleted Account", "Invalid Account", "Policy Violation Account", "Not Allowed IP",
		"Account Locking", "Account Expiration", "Password Expiration", "Duplicate Login",
		"Division Expiration", "Login Trial Exceed", "Trial Period Expired", "DateTime Error",
	}
	for _, text := range terminal {
		e, ok := classify(t, text).(Error)
		require.True(t, ok, text)
		assert.True(t, e.Terminal, text)
	}

	for _, text := range []string{"Authentication Failure:3", "No Exist Account"} {
		e, ok := classify(t, text).(Error)
		require.True(t, ok, text)
		assert.False(t, e.Terminal, text)
	}
}

func TestSpecificRulesWinOverGeneralOnes(t *testing.T) {
	cases := map[string]string{
		"Account Expiration Warning:x:1":   "account-expiration-warning",
		"Account Expiration":               "account-expiration",
		"Division Expiration Warning":      "division-expiration-warning",
		"Division Expiration":              "division-expiration",
		"Password Expiration Warning":      "password-expiration-warning",
		"Password Expiration":              "password-expiration",
		"Duplicate Login Notification:a:b": "duplicate-login-notification",
		"Duplicate Login":                  "duplicate-login",
		"Trial Period Warning:1:1":         "trial-period-warning",
		"Trial Period Expired":             "trial-period-expired",
	}
	c := New(locale.Untranslated())
	for text, rule := range cases {
		_, r, ok := c.MatchRule(text)
		require.True(t, ok, text)
		assert.Equal(t, rule, r.Name, text)
	}
}

// A rule whose needle extends another rule's needle must be evaluated first.
func TestTableOrder_SpecificBeforeGeneral(t *testing.T) {
	rules := Rules()
	for i, general := range rules {
		for j, specific := range rules {
			if i == j {
				continue
			}
			for _, g := range general.Needles {
				for _, s := range specific.Needles {
					if s == g {
						continue
					}
					shadows := strings.HasPrefix(s, g)
					if general.Mode == Substring {
						shadows = strings.Contains(s, g)
					}
					if shadows {
						assert.Less(t, j, i, "rule %q must precede %q", specific.Name, general.Name)
					}
				}
			}
		}
	}
}

func TestDuplicateLoginNotification_Fields(t *testing.T) {
	n := classify(t, "Duplicate Login Notification:kim:Kim PC:10.0.0.2:fe80::1").(Notice)
	require.Len(t, n.Fields, 4)
	assert.Equal(t, Field{Label: "Client ID", Value: "kim"}, n.Fields[0])
	assert.Equal(t, Field{Label: "Local IP", Value: "fe80::1"}, n.Fields[3])
	assert.Contains(t, n.Text(), "Client Name : Kim PC")

	partial := classify(t, "Duplicate Login Notification:kim").(Notice)
	require.Len(t, partial.Fields, 1)

	bare := classify(t, "Duplicate Login Notification").(Notice)
	assert.Empty(t, bare.Fields)
	assert.Equal(t, bare.Body, bare.Text())
}

func TestAuthenticationFailure_Attempts(t *testing.T) {
	e := classify(t, "Authentication Failure:2").(Error)
	assert.Contains(t, e.Text, "You have 2 login attempts remaining.")

	unknown := classify(t, "Authentication Failure").(Error)
	assert.Contains(t, unknown.Text, "unknown error")

	malformed := classify(t, "Authentication Failure:many").(Error)
	assert.Contains(t, malformed.Text, "unknown error")
}

func TestTrialPeriodWarning(t *testing.T) {
	assert.Contains(t, classify(t, "Trial Period Warning:30:0").(Notice).Body, "expires today")
	assert.Contains(t, classify(t, "Trial Period Warning:30:1").(Notice).Body, "1 day left")
	assert.Contains(t, classify(t, "Trial Period Warning:30:7").(Notice).Body, "7 days left")
	assert.Equal(t, "The trial period is unknown.", classify(t, "Trial Period Warning").(Notice).Body)
}

func TestForcedChange_MatchesUntranslatedAndTranslated(t *testing.T) {
	req, ok := classify(t, "You are required to change your password immediately (password expired)").(ConfirmRequest)
	require.True(t, ok)
	assert.Equal(t, "forced-change", req.Rule)
	assert.Empty(t, req.CannedYes, "the password module asks for the current password next")
	assert.Empty(t, req.CannedNo)

	m, err := locale.New("de_DE.UTF-8", map[string]map[string]string{
		"de": {locale.ForcedChangeAdmin: "Passwort sofort wechseln"},
	})
	require.NoError(t, err)
	d, ok := New(m).Match("Hinweis: Passwort sofort wechseln")
	require.True(t, ok)
	assert.IsType(t, ConfirmRequest{}, d)
}

func TestPasswordWillExpire_Notice(t *testing.T) {
	n := classify(t, "Warning: your password will expire in 3 days").(Notice)
	assert.Empty(t, n.CannedAck)
	assert.Equal(t, "Warning: your password will expire in 3 days", n.Body)
}

func TestClassify_Fallbacks(t *testing.T) {
	c := New(nil)

	p := c.Classify(models.NewPrompt("Password: ", models.PromptSecret))
	assert.Equal(t, RawPrompt{Kind: models.PromptSecret, Text: "Password: "}, p)

	assert.Equal(t, Info{Text: "hello"}, c.Classify(models.NewMessage("hello", models.SeverityInfo)))
	assert.Equal(t, Error{Text: "bad"}, c.Classify(models.NewMessage("bad", models.SeverityError)))

	// Sentinels arrive as prompts too.
	assert.IsType(t, Notice{}, c.Classify(models.NewPrompt("Account Expiration Warning:x:2", models.PromptEcho)))
}

func TestMatch_CaseSensitive(t *testing.T) {
	_, ok := New(nil).Match("account locking")
	assert.False(t, ok)
}

func TestNeedsAnswer(t *testing.T) {
	assert.True(t, NeedsAnswer(ConfirmRequest{}))
	assert.True(t, NeedsAnswer(Notice{}))
	assert.False(t, NeedsAnswer(Error{}))
	assert.False(t, NeedsAnswer(RawPrompt{}))
}
