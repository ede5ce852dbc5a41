package classifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rorical/rorigreet/internal/locale"
)

const okLabel = "Ok"

var table = []Rule{
	{
		Name:       "forced-change",
		Mode:       Substring,
		Needles:    []string{"You are required to change your password immediately", locale.ForcedChangeAdmin, locale.ForcedChangeExpired},
		Translated: true,
		build: forcedChange("Password Expiration",
			"Your password has expired.\nPlease change your password immediately.",
			"Changing Password", "Cancel"),
	},
	{
		Name:    "temporary-password",
		Mode:    Prefix,
		Needles: []string{"Temporary Password"},
		build: changePassword("Temporary Password Warning",
			"Your password has been issued temporarily.\nFor security reasons, please change your password immediately.",
			"Changing Password", "Cancel"),
	},
	{
		Name:    "password-maxday",
		Mode:    Prefix,
		Needles: []string{"Password Maxday Warning"},
		build:   passwordMaxday,
	},
	{
		Name:    "account-expiration-warning",
		Mode:    Prefix,
		Needles: []string{"Account Expiration Warning"},
		build:   expiryWarning("Account Expiration Warning", "account", ReplyAccountExpiryOK),
	},
	{
		Name:    "division-expiration-warning",
		Mode:    Prefix,
		Needles: []string{"Division Expiration Warning"},
		build:   expiryWarning("Division Expiration Warning", "organization", ReplyDivisionExpiryOK),
	},
	{
		Name:    "password-expiration-warning",
		Mode:    Prefix,
		Needles: []string{"Password Expiration Warning"},
		build:   expiryWarning("Password Expiration Warning", "password", ReplyPasswordExpiryOK),
	},
	{
		Name:       "password-expiry-notice",
		Mode:       Substring,
		Needles:    []string{locale.PasswordWillExpireText},
		Translated: true,
		build: func(r Rule, text string) Directive {
			return Notice{Rule: r.Name, Body: text, OKLabel: okLabel}
		},
	},
	{
		Name:    "duplicate-login-notification",
		Mode:    Prefix,
		Needles: []string{"Duplicate Login Notification"},
		build:   duplicateLoginNotification,
	},
	{
		Name:    "authentication-failure",
		Mode:    Prefix,
		Needles: []string{"Authentication Failure"},
		build:   authenticationFailure,
	},
	{
		Name:     "deleted-account",
		Mode:     Prefix,
		Needles:  []string{"Deleted Account"},
		Terminal: true,
		build:    fixedError("This account has deleted and is no longer available.\nPlease contact the administrator."),
	},
	{
		Name:     "invalid-account",
		Mode:     Prefix,
		Needles:  []string{"Invalid Account"},
		Terminal: true,
		build:    fixedError("You attempted to log in from an unregistered device.\nPlease contact the administrator."),
	},
	{
		Name:    "no-exist-account",
		Mode:    Prefix,
		Needles: []string{"No Exist Account"},
		build:   fixedError("Authentication Failure\nPlease check the username and password and try again."),
	},
	{
		Name:     "policy-violation",
		Mode:     Prefix,
		Needles:  []string{"Policy Violation Account"},
		Terminal: true,
		build:    fixedError("Login was denied because it violated the policy set by the GPMS.\nPlease contact the administrator."),
	},
	{
		Name:     "not-allowed-ip",
		Mode:     Prefix,
		Needles:  []string{"Not Allowed IP"},
		Terminal: true,
		build:    fixedError("Login was denied because it violated the policy(Allowed IP) set by the GPMS.\nPlease contact the administrator."),
	},
	{
		Name:     "account-locking",
		Mode:     Prefix,
		Needles:  []string{"Account Locking"},
		Terminal: true,
		build:    fixedError("Your account has been locked because\nyou have exceeded the number of login attempts.\nPlease try again in a moment."),
	},
	{
		Name:     "account-expiration",
		Mode:     Prefix,
		Needles:  []string{"Account Expiration"},
		Terminal: true,
		build:    fixedError("This account has expired and is no longer available.\nPlease contact the administrator."),
	},
	{
		Name:     "password-expiration",
		Mode:     Prefix,
		Needles:  []string{"Password Expiration"},
		Terminal: true,
		build:    fixedError("The password for your account has expired.\nPlease contact the administrator."),
	},
	{
		Name:     "duplicate-login",
		Mode:     Prefix,
		Needles:  []string{"Duplicate Login"},
		Terminal: true,
		build:    fixedError("You are already logged in.\nLog out of the other device and try again.\nIf the problem persists, please contact your administrator."),
	},
	{
		Name:     "division-expiration",
		Mode:     Prefix,
		Needles:  []string{"Division Expiration"},
		Terminal: true,
		build:    fixedError("Due to the expiration of your organization, this account is no longer available.\nPlease contact the administrator."),
	},
	{
		Name:     "login-trial-exceed",
		Mode:     Prefix,
		Needles:  []string{"Login Trial Exceed"},
		Terminal: true,
		build:    fixedError("Login attempts exceeded the number of times,\nso you cannot login for a certain period of time.\nPlease try again in a moment."),
	},
	{
		Name:     "trial-period-expired",
		Mode:     Prefix,
		Needles:  []string{"Trial Period Expired"},
		Terminal: true,
		build:    fixedError("Trial period has expired."),
	},
	{
		Name:     "datetime-error",
		Mode:     Prefix,
		Needles:  []string{"DateTime Error"},
		Terminal: true,
		build:    fixedError("Time error occurred."),
	},
	{
		Name:    "trial-period-warning",
		Mode:    Prefix,
		Needles: []string{"Trial Period Warning"},
		build:   trialPeriodWarning,
	},
}

// tail splits the ':'-delimited fields after the sentinel, keeping at most n.
// The last field keeps any remaining separators.
func tail(text string, n int) []string {
	parts := strings.SplitN(text, ":", n+1)
	if len(parts) <= 1 {
		return nil
	}
	fields := parts[1:]
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func count(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func fixedError(text string) func(Rule, string) Directive {
	return func(r Rule, _ string) Directive {
		return Error{Rule: r.Name, Text: text, Terminal: r.Terminal}
	}
}

func changePassword(title, body, yes, no string) func(Rule, string) Directive {
	return func(r Rule, _ string) Directive {
		return ConfirmRequest{
			Rule:      r.Name,
			Title:     title,
			Body:      body,
			YesLabel:  yes,
			NoLabel:   no,
			CannedYes: ReplyChangePasswordYes,
			CannedNo:  ReplyChangePasswordNo,
		}
	}
}

// forcedChange comes from the password module itself, which goes straight on
// to ask for the current password. It takes no canned answer.
func forcedChange(title, body, yes, no string) func(Rule, string) Directive {
	return func(r Rule, _ string) Directive {
		return ConfirmRequest{Rule: r.Name, Title: title, Body: body, YesLabel: yes, NoLabel: no}
	}
}

func passwordMaxday(r Rule, text string) Directive {
	within := "a few days"
	if fields := tail(text, 1); len(fields) == 1 {
		if n, ok := count(fields[0]); ok {
			within = days(n)
		}
	}
	return ConfirmRequest{
		Rule:  r.Name,
		Title: "Password Maxday Warning",
		Body: "Please change your password for security.\n" +
			"If you do not change your password within " + within + ", your password expires.\n" +
			"You can no longer log in.\n" +
			"Do you want to change password now?",
		YesLabel:  "Change now",
		NoLabel:   "Later",
		CannedYes: ReplyChangePasswordYes,
		CannedNo:  ReplyChangePasswordNo,
	}
}

// expiryWarning handles "<Sentinel>:<date>:<days left>".
func expiryWarning(title, subject, reply string) func(Rule, string) Directive {
	return func(r Rule, text string) Directive {
		body := fmt.Sprintf("Your %s will expire soon.\nPlease contact the administrator.", subject)
		if fields := tail(text, 2); len(fields) == 2 && fields[0] != "" {
			if n, ok := count(fields[1]); ok {
				body = fmt.Sprintf("Your %s will not be available after %s.\nYour %s will expire in %s.",
					subject, fields[0], subject, days(n))
			}
		}
		return Notice{
			Rule:      r.Name,
			Title:     title,
			Body:      body,
			OKLabel:   okLabel,
			CannedAck: reply,
		}
	}
}

var duplicateLoginLabels = []string{"Client ID", "Client Name", "IP", "Local IP"}

func duplicateLoginNotification(r Rule, text string) Directive {
	n := Notice{
		Rule:      r.Name,
		Title:     "Duplicate Login Notification",
		Body:      "Duplicate logins detected with the same ID.",
		OKLabel:   okLabel,
		CannedAck: ReplyDuplicateLoginOK,
	}
	for i, value := range tail(text, len(duplicateLoginLabels)) {
		if value == "" {
			continue
		}
		n.Fields = append(n.Fields, Field{Label: duplicateLoginLabels[i], Value: value})
	}
	return n
}

func authenticationFailure(r Rule, text string) Directive {
	msg := "The user could not be authenticated due to an unknown error.\nPlease contact the administrator."
	if fields := tail(text, 1); len(fields) == 1 {
		if n, ok := count(fields[0]); ok {
			msg = fmt.Sprintf("Authentication Failure\n"+
				"You have %d login attempts remaining.\n"+
				"You can no longer log in when the maximum number of login attempts is exceeded.", n)
		}
	}
	return Error{Rule: r.Name, Text: msg, Terminal: r.Terminal}
}

// trialPeriodWarning handles "Trial Period Warning:<max days>:<days left>".
func trialPeriodWarning(r Rule, text string) Directive {
	body := "The trial period is unknown."
	if fields := tail(text, 2); len(fields) == 2 {
		total, okTotal := count(fields[0])
		left, okLeft := count(fields[1])
		if okTotal && okLeft {
			head := fmt.Sprintf("The trial period is up to %d days.\n", total)
			if left == 0 {
				body = head + "The trial period expires today."
			} else {
				body = head + days(left) + " left to expire."
			}
		}
	}
	return Notice{
		Rule:      r.Name,
		Title:     "Trial Period Notification",
		Body:      body,
		OKLabel:   okLabel,
		CannedAck: ReplyTrialLoginOK,
	}
}
