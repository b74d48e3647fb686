package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// Category
func (c Category) String() string { return string(c) }

// Severity
func (s Severity) String() string { return string(s) }

// Classification
func (c Classification) String() string { return string(c) }

// Align
func (a Align) String() string { return string(a) }
