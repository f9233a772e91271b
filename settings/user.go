package settings

import "sync"

// User is one activated account with its device credentials. All fields
// are issued by the Kobo store during device authentication except Email,
// which the user supplied.
type User struct {
	Email        string `json:"Email"`
	DeviceId     string `json:"DeviceId"`
	SerialNumber string `json:"SerialNumber"`
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
	UserId       string `json:"UserId"`
	UserKey      string `json:"UserKey"`
}

// IsAuthenticated returns true once device authentication succeeded.
func (u *User) IsAuthenticated() bool {
	return u.DeviceId != "" && u.AccessToken != "" && u.RefreshToken != ""
}

// IsLoggedIn returns true once the web activation linked the device to an
// account.
func (u *User) IsLoggedIn() bool {
	return u.UserId != "" && u.UserKey != ""
}

func (u *User) matches(identifier string) bool {
	return u.Email == identifier || u.UserId == identifier || u.UserKey == identifier || u.DeviceId == identifier
}

// UserList holds all activated users. The web server mutates and renders
// the list from concurrent requests, so every access goes through the
// internal lock.
type UserList struct {
	mux   sync.RWMutex
	users []*User
}

// All returns a snapshot of the users.
func (l *UserList) All() []*User {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return append([]*User{}, l.users...)
}

// Len returns the number of users.
func (l *UserList) Len() int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return len(l.users)
}

// Lookup returns the user matching the identifier by email, user id, user
// key or device id, or nil.
func (l *UserList) Lookup(identifier string) *User {
	l.mux.RLock()
	defer l.mux.RUnlock()
	for _, user := range l.users {
		if user.matches(identifier) {
			return user
		}
	}
	return nil
}

// Add appends a user.
func (l *UserList) Add(user *User) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.users = append(l.users, user)
}

// Remove deletes the user matching the identifier and returns it, or nil
// when absent.
func (l *UserList) Remove(identifier string) *User {
	l.mux.Lock()
	defer l.mux.Unlock()
	for i, user := range l.users {
		if user.matches(identifier) {
			l.users = append(l.users[:i], l.users[i+1:]...)
			return user
		}
	}
	return nil
}

// Downloads tracks which products were already fetched per user.
type Downloads struct {
	mux    sync.Mutex
	byUser map[string][]string
}

// Mark records a download.
func (d *Downloads) Mark(userId, productId string) {
	d.mux.Lock()
	defer d.mux.Unlock()
	for _, id := range d.byUser[userId] {
		if id == productId {
			return
		}
	}
	if d.byUser == nil {
		d.byUser = map[string][]string{}
	}
	d.byUser[userId] = append(d.byUser[userId], productId)
}

// Has returns true when the product was downloaded for the user before.
func (d *Downloads) Has(userId, productId string) bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	for _, id := range d.byUser[userId] {
		if id == productId {
			return true
		}
	}
	return false
}

func (d *Downloads) snapshot() map[string][]string {
	d.mux.Lock()
	defer d.mux.Unlock()
	ret := make(map[string][]string, len(d.byUser))
	for userId, products := range d.byUser {
		ret[userId] = append([]string{}, products...)
	}
	return ret
}
