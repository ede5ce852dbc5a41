package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/conversation"
	"github.com/Rorical/rorigreet/internal/locale"
	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/internal/users"
)

var (
	// ErrNoPendingPrompt is returned by SubmitResponse when nothing asked for
	// input, or the previous answer has not been consumed yet.
	ErrNoPendingPrompt = errors.New("core: no prompt is awaiting a response")
	// ErrNothingToCancel is returned by Cancel outside of a conversation.
	ErrNothingToCancel = errors.New("core: nothing to cancel")
	// ErrUnknownDialog is returned when an answer names a dialog that is not
	// showing.
	ErrUnknownDialog = errors.New("core: no such dialog")
)

const (
	msgGenericFailure = "Authentication Failure\nPlease check the username and password and try again."
	msgNotPrompted    = "Failed to authenticate"
	msgLaunchFailed   = "Failed to start session"
)

const DefaultLoginTimeout = 60 * time.Second

// Options wires an AuthSession to its collaborators. Backend, Notifier and
// Scheduler are required.
type Options struct {
	Backend    backend.Backend
	Classifier *classifier.Classifier
	Translator locale.Translator
	Users      UserDirectory
	Sessions   SessionCatalog
	Store      Store
	Launcher   Launcher
	Notifier   Notifier
	Scheduler  Scheduler
	Logger     *zap.Logger

	// UsernameEntry is true when the front-end can show a free-form
	// username field.
	UsernameEntry bool
	// NumericIDPrefix is prepended to all-digit login names.
	NumericIDPrefix string
	LoginTimeout    time.Duration
}

// AuthSession drives one display's authentication conversation. It is not
// safe for concurrent use: every method must be called from the goroutine
// that owns it, normally Service's event loop.
type AuthSession struct {
	backend   backend.Backend
	classify  *classifier.Classifier
	users     UserDirectory
	sessions  SessionCatalog
	store     Store
	launcher  Launcher
	notify    Notifier
	schedule  Scheduler
	log       *zap.Logger
	ctx       context.Context
	usernames bool
	prefix    string
	timeout   time.Duration

	queue *conversation.Queue
	pw    passwordChange

	state      models.AuthState
	identity   string
	promptKind models.PromptKind
	failure    string
	selection  models.Selection
	owner      string // identity the selection was made for
	statusLine string
	attempt    string

	prompted     bool
	promptActive bool
	draining     bool
	haveError    bool
	terminal     bool
	declineSent  bool
	launched     bool
	inputBlocked bool
	awaiting     awaiting
	dialog       classifier.Directive
	// dialogAsked is set when the dialog arrived as a prompt, so the backend
	// is blocked waiting for its canned answer.
	dialogAsked bool

	stash        string
	stashed      bool
	attemptTimer Stopper
	timerSeq     int
}

func NewAuthSession(ctx context.Context, opts Options) *AuthSession {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := opts.Classifier
	if c == nil {
		c = classifier.New(opts.Translator)
	}
	timeout := opts.LoginTimeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	return &AuthSession{
		backend:   opts.Backend,
		classify:  c,
		users:     opts.Users,
		sessions:  opts.Sessions,
		store:     opts.Store,
		launcher:  opts.Launcher,
		notify:    opts.Notifier,
		schedule:  opts.Scheduler,
		log:       log,
		ctx:       ctx,
		usernames: opts.UsernameEntry,
		prefix:    opts.NumericIDPrefix,
		timeout:   timeout,
		queue:     conversation.NewQueue(),
		pw:        passwordChange{tr: opts.Translator},
	}
}

// Start begins a fresh attempt for identity, which is a login name,
// IdentityGuest or IdentityOther.
func (s *AuthSession) Start(identity string) error {
	s.reset()
	identity = s.normalizeID(identity)
	s.identity = identity
	s.attempt = uuid.NewString()
	s.state = models.StateAuthenticating
	s.log.Info("starting authentication",
		zap.String("identity", identity), zap.String("attempt", s.attempt))

	var err error
	switch identity {
	case IdentityOther:
		s.selectFor("")
		err = s.backend.Authenticate("")
	case IdentityGuest:
		s.selectFor("")
		err = s.backend.AuthenticateAsGuest()
	default:
		s.selectFor(identity)
		s.persist(sectionGreeter, keyLastUser, identity)
		err = s.backend.Authenticate(identity)
	}
	if err != nil {
		s.log.Error("backend refused to authenticate", zap.String("identity", identity), zap.Error(err))
		s.fail(err.Error())
		s.emit(classifier.Error{Text: msgNotPrompted})
		s.publish()
		return err
	}
	s.publish()
	return nil
}

// Login starts an attempt and answers the first secret prompt with password.
func (s *AuthSession) Login(identity, password string) error {
	if err := s.Start(identity); err != nil {
		return err
	}
	s.stash, s.stashed = password, true
	return nil
}

// OnPrompt queues a prompt from the backend.
func (s *AuthSession) OnPrompt(text string, kind models.PromptKind) {
	s.enqueue(models.NewPrompt(text, kind))
}

// OnMessage queues an informational or error message from the backend.
func (s *AuthSession) OnMessage(text string, severity models.Severity) {
	s.enqueue(models.NewMessage(text, severity))
}

func (s *AuthSession) enqueue(msg models.ConversationMessage) {
	s.stopAttemptTimer()
	s.queue.Enqueue(msg)
	s.drain()
	s.publish()
}

// drain processes queued messages until one needs the user.
func (s *AuthSession) drain() {
	if s.promptActive || s.draining || s.queue.Empty() {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	if s.askForUsername() {
		return
	}
	for {
		msg, ok := s.queue.Pop()
		if !ok {
			return
		}
		if s.handle(msg) {
			return
		}
	}
}

// askForUsername turns the backend's lone username prompt into the front-end's
// own username entry.
func (s *AuthSession) askForUsername() bool {
	if s.prompted || !s.usernames || s.queue.Len() != 1 {
		return false
	}
	next, _ := s.queue.Peek()
	if !next.IsPrompt || next.IsSecretPrompt() || s.backend.AuthenticationUser() != "" {
		return false
	}
	s.queue.Pop()
	s.prompted = true
	s.promptActive = true
	s.awaiting = awaitUsername
	s.inputBlocked = false
	s.state = models.StateAwaitingUsername
	return true
}

// handle acts on one message and reports whether draining must halt.
func (s *AuthSession) handle(msg models.ConversationMessage) bool {
	switch d := s.classify.Classify(msg).(type) {
	case classifier.ConfirmRequest:
		d.ID = uuid.NewString()
		s.dialog = d
		s.dialogAsked = msg.IsPrompt
		s.promptActive = true
		s.awaiting = awaitDialog
		s.state = models.StateChangingPassword
		s.log.Info("confirm requested", zap.String("rule", d.Rule))
		s.emit(d)
		return true

	case classifier.Notice:
		d.ID = uuid.NewString()
		s.dialog = d
		s.dialogAsked = msg.IsPrompt
		s.haveError = true
		s.promptActive = true
		s.awaiting = awaitDialog
		s.promptKind = models.PromptEcho
		s.state = models.StateAwaitingResponse
		s.log.Info("notice shown", zap.String("rule", d.Rule))
		s.emit(d)
		return true

	case classifier.Error:
		if d.Rule == "" && s.pw.active {
			s.statusLine = d.Text
			return false
		}
		s.haveError = true
		s.emit(d)
		if d.Rule == "" {
			return false
		}
		s.log.Info("backend reported failure", zap.String("rule", d.Rule), zap.Bool("terminal", d.Terminal))
		if d.Terminal {
			s.terminal = true
			s.failure = d.Text
		}
		return true

	case classifier.Info:
		if s.pw.active {
			s.statusLine = d.Text
			return false
		}
		s.emit(d)
		return false

	case classifier.RawPrompt:
		s.prompted = true
		s.promptActive = true
		s.awaiting = awaitPrompt
		s.inputBlocked = false
		s.promptKind = d.Kind
		if s.pw.active {
			s.state = models.StateChangingPassword
			s.emit(s.pw.prompt(d.Text))
		} else {
			s.state = models.StateAwaitingResponse
			if s.stashed && d.Kind == models.PromptSecret {
				password := s.stash
				s.stash, s.stashed = "", false
				s.send(password)
				return false
			}
			s.emit(d)
		}
		return true
	}
	return false
}

// SubmitResponse answers the prompt that halted the drain.
func (s *AuthSession) SubmitResponse(text string) error {
	if s.inputBlocked {
		return ErrNoPendingPrompt
	}
	switch s.awaiting {
	case awaitPrompt:
	case awaitUsername:
		name := s.normalizeID(strings.TrimSpace(text))
		if name == "" {
			return ErrNoPendingPrompt
		}
		s.identity = name
		s.selectFor(name)
		s.persist(sectionGreeter, keyLastUser, name)
		text = name
	default:
		return ErrNoPendingPrompt
	}
	s.send(text)
	s.drain()
	s.publish()
	return nil
}

// send answers a prompt on the user's behalf and waits for the backend.
func (s *AuthSession) send(text string) {
	s.promptActive = false
	s.awaiting = awaitNone
	s.inputBlocked = true
	if s.pw.active {
		s.state = models.StateChangingPassword
	} else {
		s.state = models.StateAuthenticating
	}
	s.reply(text)
	s.startAttemptTimer()
}

// reply writes to the backend without touching prompt state.
func (s *AuthSession) reply(text string) {
	if !s.backend.InAuthentication() {
		s.log.Warn("dropping response outside of authentication", zap.Int("len", len(text)))
		return
	}
	if err := s.backend.Respond(text); err != nil {
		s.log.Error("respond failed", zap.Int("len", len(text)), zap.Error(err))
	}
}

// AnswerConfirm answers the confirm dialog named id. An empty id answers
// whichever confirm dialog is showing.
func (s *AuthSession) AnswerConfirm(id string, yes bool) error {
	req, ok := s.dialog.(classifier.ConfirmRequest)
	if !ok || s.awaiting != awaitDialog || (id != "" && id != req.ID) {
		return ErrUnknownDialog
	}
	asked := s.dialogAsked
	s.dialog, s.dialogAsked = nil, false
	s.awaiting = awaitNone
	s.promptActive = false

	if yes {
		s.log.Info("password change accepted", zap.String("rule", req.Rule))
		s.pw.begin()
		s.statusLine = ""
		s.state = models.StateChangingPassword
		if asked && req.CannedYes != "" {
			s.reply(req.CannedYes)
		}
	} else {
		s.log.Info("password change declined", zap.String("rule", req.Rule))
		if !asked || !s.decline(req) {
			return s.restart()
		}
	}
	s.drain()
	s.publish()
	return nil
}

// decline sends the canned refusal once per attempt. It reports false when
// the backend can no longer take it.
func (s *AuthSession) decline(req classifier.ConfirmRequest) bool {
	s.pw.reset()
	if req.CannedNo == "" || !s.backend.InAuthentication() {
		return false
	}
	if !s.declineSent {
		s.declineSent = true
		s.reply(req.CannedNo)
	}
	s.state = models.StateAuthenticating
	return true
}

// AcknowledgeNotice dismisses the notice named id, or the current one when id
// is empty.
func (s *AuthSession) AcknowledgeNotice(id string) error {
	n, ok := s.dialog.(classifier.Notice)
	if !ok || s.awaiting != awaitDialog || (id != "" && id != n.ID) {
		return ErrUnknownDialog
	}
	asked := s.dialogAsked
	s.dialog, s.dialogAsked = nil, false
	s.awaiting = awaitNone
	s.promptActive = false
	if s.pw.active {
		s.state = models.StateChangingPassword
	} else {
		s.state = models.StateAuthenticating
	}
	if asked && n.CannedAck != "" {
		s.reply(n.CannedAck)
	}
	s.drain()
	s.publish()
	return nil
}

// Cancel backs out of whatever the user is being asked.
func (s *AuthSession) Cancel() error {
	if s.awaiting == awaitDialog {
		switch d := s.dialog.(type) {
		case classifier.ConfirmRequest:
			return s.AnswerConfirm(d.ID, false)
		case classifier.Notice:
			return s.AcknowledgeNotice(d.ID)
		}
	}
	switch {
	case s.declineSent && s.state == models.StateAuthenticating:
		return nil
	case s.pw.active, s.awaiting == awaitPrompt, s.awaiting == awaitUsername:
		s.log.Info("conversation cancelled", zap.Stringer("state", s.state))
		return s.restart()
	}
	return ErrNothingToCancel
}

// OnAuthComplete ends the current round.
func (s *AuthSession) OnAuthComplete(success bool) {
	if n := s.queue.Clear(); n > 0 {
		s.log.Debug("discarded queued messages", zap.Int("count", n))
	}
	s.stopAttemptTimer()
	s.promptActive = false
	s.awaiting = awaitNone
	s.dialog, s.dialogAsked = nil, false
	s.inputBlocked = false
	s.stash, s.stashed = "", false
	s.log.Info("authentication complete", zap.Bool("success", success),
		zap.String("attempt", s.attempt), zap.Bool("prompted", s.prompted))

	if success {
		s.pw.reset()
		if s.prompted {
			s.launch()
		} else {
			s.state = models.StateIdle
		}
		s.publish()
		return
	}

	switch {
	case s.pw.active:
		text := s.pw.failureText()
		s.pw.reset()
		s.emit(classifier.Error{Rule: "password-change-failed", Title: "Failure Of Changing Password", Text: text})
		_ = s.restart()
		return
	case s.terminal:
		s.state = models.StateFailed
	case !s.prompted:
		if !s.haveError {
			s.emit(classifier.Error{Text: msgNotPrompted})
		}
		s.state = models.StateIdle
	default:
		if !s.haveError {
			s.emit(classifier.Error{Text: msgGenericFailure})
		}
		_ = s.restart()
		return
	}
	s.publish()
}

// OnAutologinTimerExpired follows the display manager's autologin hints.
func (s *AuthSession) OnAutologinTimerExpired() {
	h := s.backend.Hints()
	if h.LockHint {
		return
	}
	if s.backend.IsAuthenticated() {
		switch {
		case s.backend.AuthenticationUser() != "", h.AutologinGuest:
			s.launch()
			s.publish()
		case h.AutologinUser != "":
			if s.Start(h.AutologinUser) == nil {
				s.prompted = true
			}
		}
		return
	}
	if err := s.backend.AuthenticateAutologin(); err != nil {
		s.log.Error("autologin failed", zap.Error(err))
	}
}

// onAttemptTimeout clears the busy indicator when the backend stays silent.
func (s *AuthSession) onAttemptTimeout(seq int) {
	if seq != s.timerSeq || s.attemptTimer == nil {
		return
	}
	s.attemptTimer = nil
	s.inputBlocked = false
	s.log.Warn("backend did not answer in time", zap.Duration("timeout", s.timeout))
	s.publish()
}

// SelectSession changes the session for the pending login.
func (s *AuthSession) SelectSession(key string) error {
	if !s.validSession(key) {
		return errors.New("core: unknown session " + key)
	}
	s.selection.Session = key
	s.publish()
	return nil
}

// SelectLanguage changes the language for the pending login.
func (s *AuthSession) SelectLanguage(name string) error {
	if _, ok := locale.Canonical(name); !ok {
		return errors.New("core: unknown language " + name)
	}
	s.selection.Language = name
	s.publish()
	return nil
}

func (s *AuthSession) launch() {
	if s.launched {
		return
	}
	user := s.backend.AuthenticationUser()
	if user == "" && s.identity != IdentityGuest && s.identity != IdentityOther {
		user = s.identity
	}
	sel := s.selection
	s.log.Info("starting session", zap.String("user", user),
		zap.String("session", sel.Session), zap.String("language", sel.Language))

	if s.launcher == nil {
		s.log.Error("no session launcher configured")
		s.emit(classifier.Error{Text: msgLaunchFailed})
		_ = s.restart()
		return
	}
	if err := s.launcher.StartSession(s.ctx, user, sel.Session, sel.Language); err != nil {
		s.log.Error("session launch failed", zap.Error(err))
		s.emit(classifier.Error{Text: msgLaunchFailed})
		_ = s.restart()
		return
	}
	s.launched = true
	if sel.Session != "" {
		s.persist(sectionGreeter, keyLastSession, sel.Session)
	}
	if user != "" {
		s.persist(sectionGreeter, keyLastUser, user)
		if sel.Session != "" {
			s.persist(userSection(user), keySession, sel.Session)
		}
		if sel.Language != "" {
			s.persist(userSection(user), keyLanguage, sel.Language)
		}
	}
	s.state = models.StateAuthenticated
}

// restart begins a new attempt for whoever the backend was talking to.
func (s *AuthSession) restart() error {
	identity := s.backend.AuthenticationUser()
	if identity == "" {
		identity = s.identity
	}
	if identity == "" {
		identity = IdentityOther
	}
	if s.backend.InAuthentication() {
		if err := s.backend.CancelAuthentication(); err != nil {
			s.log.Warn("cancel authentication", zap.Error(err))
		}
	}
	return s.Start(identity)
}

func (s *AuthSession) reset() {
	s.queue.Clear()
	s.stopAttemptTimer()
	s.pw.reset()
	s.prompted = false
	s.promptActive = false
	s.haveError = false
	s.terminal = false
	s.declineSent = false
	s.launched = false
	s.inputBlocked = false
	s.awaiting = awaitNone
	s.dialog, s.dialogAsked = nil, false
	s.failure = ""
	s.statusLine = ""
	s.stash, s.stashed = "", false
}

func (s *AuthSession) fail(reason string) {
	s.state = models.StateFailed
	s.failure = reason
}

// selectFor picks the session and language for name. The selection survives
// a restart for the same identity.
func (s *AuthSession) selectFor(name string) {
	if name == s.owner && (s.selection.Session != "" || s.selection.Language != "") {
		return
	}
	s.owner = name
	s.selection = models.Selection{}

	var pref users.User
	if name != "" && s.users != nil {
		u, err := s.users.Lookup(s.ctx, name)
		switch {
		case err == nil:
			pref = u
		case !errors.Is(err, users.ErrNotFound):
			s.log.Warn("user lookup failed", zap.String("user", name), zap.Error(err))
		}
	}
	if name != "" {
		if pref.Session == "" {
			pref.Session, _ = s.lookup(userSection(name), keySession)
		}
		if pref.Language == "" {
			pref.Language, _ = s.lookup(userSection(name), keyLanguage)
		}
	}
	s.selection.Session = s.resolveSession(pref.Session)
	if _, ok := locale.Canonical(pref.Language); ok {
		s.selection.Language = pref.Language
	}
}

// resolveSession falls back from the preferred session to the backend's
// default, then to the first installed session.
func (s *AuthSession) resolveSession(preferred string) string {
	if s.validSession(preferred) {
		return preferred
	}
	if d := s.backend.Hints().DefaultSession; s.validSession(d) {
		return d
	}
	if last, ok := s.lookup(sectionGreeter, keyLastSession); ok && s.validSession(last) {
		return last
	}
	if s.sessions != nil {
		if keys := s.sessions.Keys(); len(keys) > 0 {
			return keys[0]
		}
	}
	return ""
}

func (s *AuthSession) validSession(key string) bool {
	if key == "" || s.sessions == nil {
		return false
	}
	for _, k := range s.sessions.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// normalizeID prefixes all-digit login names, which some directories reject.
func (s *AuthSession) normalizeID(name string) string {
	if s.prefix == "" || name == "" || strings.HasPrefix(name, s.prefix) {
		return name
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return name
		}
	}
	return s.prefix + name
}

func (s *AuthSession) lookup(section, key string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	return s.store.GetString(section, key)
}

func (s *AuthSession) persist(section, key, value string) {
	if s.store == nil {
		return
	}
	if err := s.store.SetString(section, key, value); err != nil {
		s.log.Warn("persist state", zap.String("section", section), zap.String("key", key), zap.Error(err))
	}
}

func (s *AuthSession) startAttemptTimer() {
	s.stopAttemptTimer()
	if s.schedule == nil {
		return
	}
	s.timerSeq++
	seq := s.timerSeq
	s.attemptTimer = s.schedule(s.timeout, func() { s.onAttemptTimeout(seq) })
}

func (s *AuthSession) stopAttemptTimer() {
	if s.attemptTimer != nil {
		s.attemptTimer.Stop()
		s.attemptTimer = nil
	}
}
