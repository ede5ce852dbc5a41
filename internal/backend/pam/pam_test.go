package pam

import (
	"errors"
	"testing"
	"time"

	"github.com/msteinert/pam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/models"
)

type exchange struct {
	style pam.Style
	msg   string
}

// fakeTx replays exchanges through the conversation callback during
// Authenticate and checks the password.
type fakeTx struct {
	conv     func(pam.Style, string) (string, error)
	script   []exchange
	password string
	acctErr  error
	changed  bool
	items    map[pam.Item]string
	answers  []string
}

func (f *fakeTx) Authenticate(pam.Flags) error {
	for _, ex := range f.script {
		answer, err := f.conv(ex.style, ex.msg)
		if err != nil {
			return err
		}
		if ex.style == pam.PromptEchoOff || ex.style == pam.PromptEchoOn {
			f.answers = append(f.answers, answer)
		}
	}
	if len(f.answers) == 0 || f.answers[len(f.answers)-1] != f.password {
		return errors.New("Authentication failure")
	}
	return nil
}

func (f *fakeTx) AcctMgmt(pam.Flags) error { return f.acctErr }

func (f *fakeTx) ChangeAuthTok(flags pam.Flags) error {
	if flags != pam.ChangeExpiredAuthtok {
		return errors.New("wrong flags")
	}
	f.changed = true
	return nil
}

func (f *fakeTx) SetItem(i pam.Item, v string) error {
	f.items[i] = v
	return nil
}

func newFake(b **fakeTx, script []exchange, password string) StartFunc {
	return func(service, user string, conv func(pam.Style, string) (string, error)) (Transaction, error) {
		*b = &fakeTx{conv: conv, script: script, password: password, items: map[pam.Item]string{}}
		return *b, nil
	}
}

func recv(t *testing.T, b *Backend) backend.Event {
	t.Helper()
	select {
	case ev := <-b.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestPAM_Success(t *testing.T) {
	defer goleak.VerifyNone(t)
	var tx *fakeTx
	b := NewWithStart(Config{Service: "lightdm", Tty: "tty7"}, nil, newFake(&tx, []exchange{
		{pam.TextInfo, "Welcome"},
		{pam.PromptEchoOff, "Password: "},
	}, "hunter2"))
	defer b.Close()

	require.NoError(t, b.Authenticate("bob"))
	assert.Equal(t, backend.MessageEvent{Text: "Welcome", Severity: models.SeverityInfo}, recv(t, b))
	assert.Equal(t, backend.PromptEvent{Text: "Password: ", Kind: models.PromptSecret}, recv(t, b))
	require.NoError(t, b.Respond("hunter2"))
	assert.Equal(t, backend.CompleteEvent{Success: true}, recv(t, b))
	assert.True(t, b.IsAuthenticated())
	assert.Equal(t, "tty7", tx.items[pam.Tty])
}

func TestPAM_Failure(t *testing.T) {
	defer goleak.VerifyNone(t)
	var tx *fakeTx
	b := NewWithStart(Config{}, nil, newFake(&tx, []exchange{{pam.PromptEchoOff, "Password: "}}, "hunter2"))
	defer b.Close()

	require.NoError(t, b.Authenticate("bob"))
	recv(t, b)
	require.NoError(t, b.Respond("wrong"))
	assert.Equal(t, backend.CompleteEvent{Success: false}, recv(t, b))
	assert.False(t, b.IsAuthenticated())
}

func TestPAM_ExpiredTokenIsChanged(t *testing.T) {
	defer goleak.VerifyNone(t)
	var tx *fakeTx
	start := newFake(&tx, []exchange{{pam.PromptEchoOff, "Password: "}}, "pw")
	b := NewWithStart(Config{}, nil, func(s, u string, conv func(pam.Style, string) (string, error)) (Transaction, error) {
		opened, err := start(s, u, conv)
		tx.acctErr = errors.New(newAuthtokRequired)
		return opened, err
	})
	defer b.Close()

	require.NoError(t, b.Authenticate("bob"))
	recv(t, b)
	require.NoError(t, b.Respond("pw"))
	assert.Equal(t, backend.CompleteEvent{Success: true}, recv(t, b))
	assert.True(t, tx.changed)
}

func TestPAM_UsernameFromFirstEchoPrompt(t *testing.T) {
	defer goleak.VerifyNone(t)
	var tx *fakeTx
	b := NewWithStart(Config{}, nil, newFake(&tx, []exchange{
		{pam.PromptEchoOn, "login: "},
		{pam.PromptEchoOff, "Password: "},
	}, "pw"))
	defer b.Close()

	require.NoError(t, b.Authenticate(""))
	assert.Equal(t, backend.PromptEvent{Text: "login: ", Kind: models.PromptEcho}, recv(t, b))
	assert.Empty(t, b.AuthenticationUser())
	require.NoError(t, b.Respond("alice"))
	recv(t, b)
	assert.Equal(t, "alice", b.AuthenticationUser())
}

func TestPAM_CancelDropsCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)
	var tx *fakeTx
	b := NewWithStart(Config{}, nil, newFake(&tx, []exchange{{pam.PromptEchoOff, "Password: "}}, "pw"))

	require.NoError(t, b.Authenticate("bob"))
	recv(t, b)
	require.NoError(t, b.CancelAuthentication())
	require.NoError(t, b.Close())

	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event %#v", ev)
	default:
	}
}

func TestPAM_GuestAndAutologin(t *testing.T) {
	b := NewWithStart(Config{}, nil, nil)
	defer b.Close()
	assert.ErrorIs(t, b.AuthenticateAsGuest(), backend.ErrUnsupported)
	assert.ErrorIs(t, b.AuthenticateAutologin(), backend.ErrUnsupported)
}
