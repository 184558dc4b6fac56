package sqlinjection

import (
	"regexp"
	"strings"
)

// stringChars can open and close an SQL string literal.
var stringChars = []string{`"`, `'`}

// dangerousInAnyContext cannot be neutralised by quoting.
var dangerousInAnyContext = []string{`"`, `'`, "`", `\`, "/*", "#", "--"}

var keywords = []string{
	"INSERT", "SELECT", "CREATE", "DROP", "DATABASE", "UPDATE", "DELETE",
	"ALTER", "GRANT", "SAVEPOINT", "COMMIT", "ROLLBACK", "TRUNCATE", "OR",
	"AND", "UNION", "AS", "WHERE", "DISTINCT", "FROM", "INTO", "TOP",
	"BETWEEN", "LIKE", "IN", "NULL", "NOT", "TABLE", "INDEX", "VIEW",
	"COUNT", "SUM", "AVG", "MIN", "MAX", "GROUP", "BY", "HAVING", "DESC",
	"ASC", "OFFSET", "FETCH", "LEFT", "RIGHT", "INNER", "OUTER", "JOIN",
	"EXISTS", "REVOKE", "ALL", "LIMIT", "ORDER", "ADD", "CONSTRAINT",
	"COLUMN", "ANY", "BACKUP", "CASE", "CHECK", "REPLACE", "DEFAULT", "EXEC",
	"FOREIGN", "KEY", "FULL", "PROCEDURE", "ROWNUM", "SET", "SESSION",
	"GLOBAL", "UNIQUE", "VALUES", "COLLATE", "IS",
}

const operators = `=!<>+\-*/%&|^~`

var (
	keywordPattern  = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:` + strings.Join(keywords, "|") + `)(?:$|[^a-z])`)
	operatorPattern = regexp.MustCompile(`[` + operators + `]`)
	functionPattern = regexp.MustCompile(`(?i)[a-z_][a-z0-9_]*\s*\(`)
	statementEnd    = regexp.MustCompile(`;`)
)
