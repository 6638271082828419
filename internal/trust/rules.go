package trust

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/codefionn/execguard/internal/shellparse"
)

// Rule trusts any command whose argv starts with Prefix.
type Rule struct {
	Prefix []string `yaml:"prefix"`
}

// RuleSet is the parsed trust rule file.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Matches reports whether any rule's prefix matches the command.
func (rs RuleSet) Matches(command []string) bool {
	for _, rule := range rs.Rules {
		if len(rule.Prefix) == 0 || len(rule.Prefix) > len(command) {
			continue
		}
		match := true
		for i, p := range rule.Prefix {
			if command[i] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ParseRules decodes a YAML rule document.
func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse trust rules: %w", err)
	}
	for i, rule := range rs.Rules {
		if len(rule.Prefix) == 0 {
			return RuleSet{}, fmt.Errorf("trust rule %d has an empty prefix", i)
		}
	}
	return rs, nil
}

// LoadRules reads and parses a rule file.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, err
	}
	return ParseRules(data)
}

// Store holds the active rule set and hands out the trust predicate. Safe
// for concurrent readers while the watcher swaps rules in.
type Store struct {
	mu    sync.RWMutex
	rules RuleSet
}

func NewStore(rules RuleSet) *Store {
	return &Store{rules: rules}
}

// Replace swaps in a new rule set.
func (s *Store) Replace(rules RuleSet) {
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
}

// IsTrusted reports whether one argv matches the active rules.
func (s *Store) IsTrusted(command []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Matches(command)
}

// IsTrustedScript parses a shell script and trusts it only when every
// simple command in it is trusted. Unparseable scripts are untrusted.
func (s *Store) IsTrustedScript(script string) bool {
	commands, err := shellparse.Split(script)
	if err != nil {
		return false
	}
	for _, command := range commands {
		if !s.IsTrusted(command) {
			return false
		}
	}
	return true
}

// Predicate adapts the store for the safety engine. Shell invocations are
// split into their simple commands first, so a rule like `prefix: [ls]`
// also trusts `bash -lc "ls -la"`.
func (s *Store) Predicate() func(command []string) bool {
	return func(command []string) bool {
		if script, ok := shellScript(command); ok {
			return s.IsTrustedScript(script)
		}
		return s.IsTrusted(command)
	}
}

// shellScript recognizes the ["bash"|"sh", "-c"|"-lc", script] shape the
// exec_command tool produces.
func shellScript(command []string) (string, bool) {
	if len(command) == 3 && (command[0] == "bash" || command[0] == "sh") &&
		(command[1] == "-c" || command[1] == "-lc") {
		return command[2], true
	}
	return "", false
}
