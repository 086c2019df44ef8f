package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var filmLengthPattern = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}|\d{1,2}:\d{2})$`)

// ParseFilmLength converts "MM:SS" or "HH:MM:SS" to whole seconds.
func ParseFilmLength(s string) (int, error) {
	if !filmLengthPattern.MatchString(s) {
		return 0, fmt.Errorf("film length %q is not MM:SS or HH:MM:SS", s)
	}
	parts := strings.Split(s, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatFilmLength renders seconds as zero-padded HH:MM:SS.
func FormatFilmLength(totalSeconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60)
}
