// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

import (
	"bufio"
	"fmt"
	"io"

	"code.hybscloud.com/scal/internal/obslog"
)

// LogIntegrityError reports a malformed log row or a violated matching
// invariant. Code mirrors the numeric exit codes parser.cpp and semantic.cpp
// used to abort the process with; here they label the error instead of
// terminating it.
type LogIntegrityError struct {
	Line   int
	Reason string
	Code   int
}

func (e *LogIntegrityError) Error() string {
	return fmt.Sprintf("analyzer: line %d: %s (code %d)", e.Line, e.Reason, e.Code)
}

// Parse reads the `<type> <value> <start> <lin_time> <end>` log format:
// type is 0 for INSERT or 1 for REMOVE, the remaining fields are uint64
// except value which is int64. A value of 0 denotes a null-return REMOVE
// and is re-mapped to a unique negative value so distinct null-returns
// never collide during Match. A lin_time of 0 is substituted with end, with
// a one-time warning the first time it happens.
//
// Grounded on original_source's parser.cpp parse_logfile, with exit(N) on
// malformed input replaced by a returned *LogIntegrityError.
func Parse(r io.Reader) ([]*Operation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var ops []*Operation
	nextNullValue := int64(-1)
	warnedMissingLinTime := false

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if len(text) == 0 {
			continue
		}

		var typeField int
		var value int64
		var start, linTime, end uint64
		n, err := fmt.Sscanf(text, "%d %d %d %d %d", &typeField, &value, &start, &linTime, &end)
		if err != nil || n != 5 {
			return nil, &LogIntegrityError{Line: line, Reason: "could not parse all 5 fields", Code: 1}
		}

		var opType Type
		switch typeField {
		case 0:
			opType = Insert
		case 1:
			opType = Remove
		default:
			return nil, &LogIntegrityError{Line: line, Reason: fmt.Sprintf("invalid operation type %d", typeField), Code: 2}
		}

		if value == 0 {
			value = nextNullValue
			nextNullValue--
		}

		if linTime == 0 {
			if !warnedMissingLinTime {
				warnedMissingLinTime = true
				obslog.Default().Warn("linearization point time stamps are missing, substituting op end")
			}
			linTime = end
		}

		if start > end {
			return nil, &LogIntegrityError{Line: line, Reason: "start is after end", Code: 3}
		}

		ops = append(ops, &Operation{
			ID:        len(ops),
			Type:      opType,
			Value:     value,
			Start:     start,
			Lin:       linTime,
			End:       end,
			RealStart: start,
			RealEnd:   end,
			Order:     len(ops),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &LogIntegrityError{Line: line, Reason: err.Error(), Code: 4}
	}
	return ops, nil
}
