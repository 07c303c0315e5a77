package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/common"
)

// matchID expands ref to the single id in ids that equals it or starts with it.
func matchID(kind, ref string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", common.NewUserError(fmt.Sprintf("No %s matches %q", kind, ref), common.ErrNotFound)
	default:
		return "", common.NewUserError(fmt.Sprintf("%q matches %d %ss, use a longer prefix", ref, len(matches), kind), nil)
	}
}
