package sqlite

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	sqlitedriver "modernc.org/sqlite"
)

// maxCachedPatterns bounds the compiled pattern cache. A full cache is
// dropped wholesale before the next insert.
const maxCachedPatterns = 64

var (
	compiledMu sync.Mutex
	compiled   = make(map[string]*regexp.Regexp)
)

func init() {
	// SQLite rewrites "X REGEXP Y" into regexp(Y, X).
	if err := sqlitedriver.RegisterDeterministicScalarFunction("regexp", 2, sqlRegexp); err != nil {
		panic(fmt.Sprintf("register regexp function: %v", err))
	}
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if re, ok := compiled[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	if len(compiled) >= maxCachedPatterns {
		clear(compiled)
	}
	compiled[expr] = re
	return re, nil
}

// sqlRegexp reports whether the subject contains a match of the pattern.
// NULL subjects never match.
func sqlRegexp(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	expr, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text, got %T", args[0])
	}

	var subject string
	switch v := args[1].(type) {
	case nil:
		return int64(0), nil
	case string:
		subject = v
	case []byte:
		subject = string(v)
	default:
		subject = fmt.Sprint(v)
	}

	re, err := compilePattern(expr)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	if re.MatchString(subject) {
		return int64(1), nil
	}
	return int64(0), nil
}
