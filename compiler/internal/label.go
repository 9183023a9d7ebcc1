package internal

import (
	"crypto/rand"
	"strconv"
	"strings"
)

// LabelSupplier hands out fresh assembly labels for string data. A supplier
// never returns the same label twice.
type LabelSupplier interface {
	NextLabel() string
}

const labelPrefix = "str"

// CounterLabels yields str0, str1, ... so the same tree always generates the
// same assembly.
type CounterLabels struct {
	next int
}

func NewCounterLabels() *CounterLabels {
	return &CounterLabels{}
}

func (labels *CounterLabels) NextLabel() string {
	label := labelPrefix + strconv.Itoa(labels.next)
	labels.next++
	return label
}

// RandomLabels yields labels built from random text, like strq3zt5... It
// remembers what it handed out and draws again on a repeat.
type RandomLabels struct {
	used map[string]struct{}
}

func NewRandomLabels() *RandomLabels {
	return &RandomLabels{used: map[string]struct{}{}}
}

func (labels *RandomLabels) NextLabel() string {
	for {
		label := labelPrefix + strings.ToLower(rand.Text())
		if _, ok := labels.used[label]; ok {
			continue
		}
		labels.used[label] = struct{}{}
		return label
	}
}

// Label supplier names accepted in configuration.
const (
	CounterLabelsName = "counter"
	RandomLabelsName  = "random"
)

// NewLabelSupplier returns a fresh supplier by name. Unknown names fall back
// to the counter.
func NewLabelSupplier(name string) LabelSupplier {
	if name == RandomLabelsName {
		return NewRandomLabels()
	}
	return NewCounterLabels()
}
