package models

import (
	"fmt"
	"regexp"
	"strconv"
)

var annotatorIDPattern = regexp.MustCompile(`^annotator_(\d{2})$`)

// AnnotatorIDs returns the fixed enumeration of valid annotator ids for
// the configured annotator count: annotator_01 through annotator_NN.
func AnnotatorIDs(count int) []string {
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, fmt.Sprintf("annotator_%02d", i))
	}
	return ids
}

// AnnotatorIndex parses an annotator id and returns its 1-based index.
// Ids outside the configured enumeration are rejected.
func AnnotatorIndex(annotatorID string, count int) (int, error) {
	m := annotatorIDPattern.FindStringSubmatch(annotatorID)
	if m == nil {
		return 0, fmt.Errorf("invalid annotator id %q (expected annotator_NN)", annotatorID)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("invalid annotator id %q (must be annotator_01..annotator_%02d)", annotatorID, count)
	}
	return n, nil
}
