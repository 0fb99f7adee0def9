// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access implements the layered access-control evaluator gating the
private resource namespace.

Rule sources, consulted in order:

  - Per-user rules: users/<shard>/<name>/access.txt
  - Group membership: .group (global rules whose subject is one of the
    user's groups)
  - Global rules: .access (subject "*")

All sources are plain text and re-read on every evaluation, so rule edits
take effect without a restart.
*/
package access

import (
	"errors"
	"sort"
	"strings"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/store"
	"github.com/taibuivan/custos/internal/users"
)

// # Access Levels

const (
	// LevelRead grants GET/HEAD on a resource.
	LevelRead = 'r'
	// LevelWrite grants POST on a resource.
	LevelWrite = 'w'
	// LevelDelete grants DELETE on a resource.
	LevelDelete = 'd'
)

// # Rules

// Rule is one (subject, access, target) triple read from a rule file.
type Rule struct {
	// Subject is a username, a group name, or "*".
	Subject string `json:"subject"`
	// Access is a subset of the characters "rwd".
	Access string `json:"access"`
	// Target is a path prefix, matched with a normalised leading "/".
	Target string `json:"target"`
}

// Matches reports whether the rule grants the level on the path. A target
// ending in "/" matches only below that directory; a bare target also
// matches the path equal to the target.
func (rule Rule) Matches(path string, level rune) bool {
	if !strings.ContainsRune(rule.Access, level) {
		return false
	}
	return strings.HasPrefix(normalizePath(path), normalizePath(rule.Target))
}

// Info summarises every rule that applies to one user. It powers the
// /auth/access/info endpoint.
type Info struct {
	UserAccess  []Rule   `json:"userAccess"`
	GroupRules  []Rule   `json:"groupRules"`
	GlobalRules []Rule   `json:"globalRules"`
	Groups      []string `json:"groups"`
}

// # Evaluator

// Evaluator decides (subject, path, level) questions against the on-disk
// rule sources.
type Evaluator struct {
	documents *store.Store
}

// NewEvaluator creates an Evaluator over the given document store.
func NewEvaluator(documents *store.Store) *Evaluator {
	return &Evaluator{documents: documents}
}

// Check decides whether the user may act on path at the given level.
//
// Layering: any matching per-user rule grants; otherwise any matching
// global rule whose subject is a group the user belongs to; otherwise any
// matching global "*" rule. Everything else is denied.
func (e *Evaluator) Check(user *users.User, path string, level rune) (bool, error) {
	userRules, err := e.userRules(user.Name)
	if err != nil {
		return false, err
	}
	for _, rule := range userRules {
		if rule.Matches(path, level) {
			return true, nil
		}
	}

	groups, err := e.groupsOf(user.Name)
	if err != nil {
		return false, err
	}
	globalRules, err := e.globalRules()
	if err != nil {
		return false, err
	}

	for _, rule := range globalRules {
		if containsString(groups, rule.Subject) && rule.Matches(path, level) {
			return true, nil
		}
	}
	for _, rule := range globalRules {
		if rule.Subject == "*" && rule.Matches(path, level) {
			return true, nil
		}
	}
	return false, nil
}

// Summary returns the user's own rules plus the group and global rules that
// apply, together with the resolved group list.
func (e *Evaluator) Summary(user *users.User) (*Info, error) {
	userRules, err := e.userRules(user.Name)
	if err != nil {
		return nil, err
	}
	groups, err := e.groupsOf(user.Name)
	if err != nil {
		return nil, err
	}
	globalRules, err := e.globalRules()
	if err != nil {
		return nil, err
	}

	info := &Info{
		UserAccess:  userRules,
		GroupRules:  []Rule{},
		GlobalRules: []Rule{},
		Groups:      groups,
	}
	if info.UserAccess == nil {
		info.UserAccess = []Rule{}
	}
	for _, rule := range globalRules {
		switch {
		case containsString(groups, rule.Subject):
			info.GroupRules = append(info.GroupRules, rule)
		case rule.Subject == "*":
			info.GlobalRules = append(info.GlobalRules, rule)
		}
	}
	return info, nil
}

// # Rule Sources

// userRules reads the user's access.txt and keeps the lines addressed to
// that username.
func (e *Evaluator) userRules(name string) ([]Rule, error) {
	rules, err := e.readRules(users.AccessPath(name))
	if err != nil {
		return nil, err
	}
	var own []Rule
	for _, rule := range rules {
		if rule.Subject == name {
			own = append(own, rule)
		}
	}
	return own, nil
}

// globalRules reads the .access file.
func (e *Evaluator) globalRules() ([]Rule, error) {
	return e.readRules(constants.GlobalAccessPath)
}

// readRules parses a rule file: one "<subject> <access> <target>" triple per
// line, blank lines and '#' comments skipped. A missing file yields no rules.
func (e *Evaluator) readRules(path string) ([]Rule, error) {
	data, err := e.documents.LoadRaw(path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rules []Rule
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		rules = append(rules, Rule{Subject: fields[0], Access: fields[1], Target: fields[2]})
	}
	return rules, nil
}

// # Group Membership

// groupsOf resolves the groups a user belongs to from the .group file.
//
// Members prefixed "." reference another group; references are resolved one
// level deep (a referenced group contributes only its direct username
// members).
func (e *Evaluator) groupsOf(name string) ([]string, error) {
	memberships, err := e.readGroups()
	if err != nil {
		return nil, err
	}

	groups := []string{}
	for group, members := range memberships {
		if e.memberOf(name, members, memberships) {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

// memberOf reports direct membership, or membership through one ".group"
// reference.
func (*Evaluator) memberOf(name string, members []string, memberships map[string][]string) bool {
	for _, member := range members {
		if member == name {
			return true
		}
		if strings.HasPrefix(member, ".") {
			for _, indirect := range memberships[member[1:]] {
				if indirect == name {
					return true
				}
			}
		}
	}
	return false
}

// readGroups parses the .group file: "<group> <member> <member> ..." per
// line, '#' comments and blanks skipped.
func (e *Evaluator) readGroups() (map[string][]string, error) {
	data, err := e.documents.LoadRaw(constants.GroupsPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string][]string{}, nil
		}
		return nil, err
	}

	memberships := map[string][]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		memberships[fields[0]] = fields[1:]
	}
	return memberships, nil
}

// # Helpers

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
