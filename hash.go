package main

import (
	"crypto/sha256"
	"encoding/binary"
)

const (
	derivedPriorityRange = 200
	maxRulePriority      = 50000
)

// rulePriorityFor maps an environment name onto [1, derivedPriorityRange].
// Two environments can collide; set rulePriority explicitly for one of them
// when the listener rejects the rule.
func rulePriorityFor(env string) int {
	sum := sha256.Sum256([]byte(env))
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n%derivedPriorityRange) + 1
}
