package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	accountsService   = "org.freedesktop.Accounts"
	accountsPath      = dbus.ObjectPath("/org/freedesktop/Accounts")
	accountsInterface = "org.freedesktop.Accounts"
	userInterface     = "org.freedesktop.Accounts.User"
	errNoSuchUser     = "org.freedesktop.Accounts.Error.Failed"
)

// Accounts reads preferences from the AccountsService daemon on the system
// bus, the same store LightDM greeters use.
type Accounts struct {
	conn *dbus.Conn
}

// NewAccounts connects to the system bus. The connection is shared and must
// not be closed by the caller.
func NewAccounts() (*Accounts, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &Accounts{conn: conn}, nil
}

func (a *Accounts) Lookup(ctx context.Context, name string) (User, error) {
	var path dbus.ObjectPath
	err := a.conn.Object(accountsService, accountsPath).
		CallWithContext(ctx, accountsInterface+".FindUserByName", 0, name).
		Store(&path)
	if err != nil {
		var dbusErr dbus.Error
		if errors.As(err, &dbusErr) && dbusErr.Name == errNoSuchUser {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user %q: %w", name, err)
	}
	return a.read(path)
}

// List returns the users AccountsService considers cached, which is the
// set shown by graphical greeters.
func (a *Accounts) List(ctx context.Context) ([]User, error) {
	var paths []dbus.ObjectPath
	err := a.conn.Object(accountsService, accountsPath).
		CallWithContext(ctx, accountsInterface+".ListCachedUsers", 0).
		Store(&paths)
	if err != nil {
		return nil, fmt.Errorf("list cached users: %w", err)
	}
	out := make([]User, 0, len(paths))
	for _, p := range paths {
		u, err := a.read(p)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (a *Accounts) read(path dbus.ObjectPath) (User, error) {
	obj := a.conn.Object(accountsService, path)
	var u User
	for prop, dst := range map[string]*string{
		"UserName": &u.Name,
		"RealName": &u.RealName,
		"XSession": &u.Session,
		"Language": &u.Language,
	} {
		v, err := obj.GetProperty(userInterface + "." + prop)
		if err != nil {
			// XSession and Language are optional extensions.
			if prop == "UserName" {
				return User{}, fmt.Errorf("read %s of %s: %w", prop, path, err)
			}
			continue
		}
		if s, ok := v.Value().(string); ok {
			*dst = s
		}
	}
	return u, nil
}
