package state

import (
	"encoding/json"
	"sort"
)

// State maps each username to the set of media URLs already processed.
// It is not safe for concurrent mutation.
type State struct {
	seen map[string]map[string]struct{}
}

// New returns an empty state
func New() *State {
	return &State{seen: make(map[string]map[string]struct{})}
}

// Seen returns the user's processed URLs in sorted order
func (s *State) Seen(username string) []string {
	return sortedKeys(s.seen[username])
}

// Has reports whether url was already processed for username
func (s *State) Has(username, url string) bool {
	_, ok := s.seen[username][url]
	return ok
}

// Contains reports whether the state has an entry for username
func (s *State) Contains(username string) bool {
	_, ok := s.seen[username]
	return ok
}

// Diff returns the URLs of feed not yet seen for username, in feed order.
// Duplicates within feed are reported once.
func (s *State) Diff(username string, feed []string) []string {
	known := s.seen[username]
	fresh := make([]string, 0, len(feed))
	added := make(map[string]struct{}, len(feed))
	for _, url := range feed {
		if _, ok := known[url]; ok {
			continue
		}
		if _, ok := added[url]; ok {
			continue
		}
		added[url] = struct{}{}
		fresh = append(fresh, url)
	}
	return fresh
}

// Merge adds urls to the user's set and returns how many were new.
// The user always has an entry afterwards, even when urls is empty.
func (s *State) Merge(username string, urls []string) int {
	set, ok := s.seen[username]
	if !ok {
		set = make(map[string]struct{}, len(urls))
		s.seen[username] = set
	}

	added := 0
	for _, url := range urls {
		if _, ok := set[url]; ok {
			continue
		}
		set[url] = struct{}{}
		added++
	}
	return added
}

// Forget drops everything recorded for username and reports whether an entry existed
func (s *State) Forget(username string) bool {
	_, ok := s.seen[username]
	delete(s.seen, username)
	return ok
}

// Users returns the usernames with an entry, sorted
func (s *State) Users() []string {
	users := make([]string, 0, len(s.seen))
	for u := range s.seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Len returns the number of URLs recorded for username
func (s *State) Len(username string) int {
	return len(s.seen[username])
}

// Clone returns a deep copy
func (s *State) Clone() *State {
	c := New()
	for user, set := range s.seen {
		cp := make(map[string]struct{}, len(set))
		for url := range set {
			cp[url] = struct{}{}
		}
		c.seen[user] = cp
	}
	return c
}

// MarshalJSON encodes the state as {username: [url, ...]} with sorted lists
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toLists())
}

// UnmarshalJSON decodes {username: [url, ...]}, collapsing duplicates
func (s *State) UnmarshalJSON(data []byte) error {
	var lists map[string][]string
	if err := json.Unmarshal(data, &lists); err != nil {
		return err
	}
	*s = *fromLists(lists)
	return nil
}

func (s *State) toLists() map[string][]string {
	lists := make(map[string][]string, len(s.seen))
	for user, set := range s.seen {
		lists[user] = sortedKeys(set)
	}
	return lists
}

func fromLists(lists map[string][]string) *State {
	s := New()
	for user, urls := range lists {
		s.Merge(user, urls)
	}
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
