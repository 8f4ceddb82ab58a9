package di

import (
	"strings"
	"unicode"
)

// aliasTable maps parameter/field names (exact, lowercased, snake_case) to
// candidate TypeKey IDs. It is consulted only when a dependency site lacks
// a usable type declaration -- in Go this is structurally limited to a
// di-tagged struct field typed `any` (interface{} with no methods) or
// UnionValue, since every constructor function parameter and every
// concretely-typed struct field already carries a usable type at compile
// time.
type aliasTable struct {
	exact map[string][]TypeKey
}

func newAliasTable() *aliasTable {
	return &aliasTable{exact: make(map[string][]TypeKey)}
}

// add registers every normalized form of name (exact, lowercase,
// snake_case) as a candidate pointing at key.
func (a *aliasTable) add(name string, key TypeKey) {
	a.addExact(name, key)
	if lower := strings.ToLower(name); lower != name {
		a.addExact(lower, key)
	}
	if snake := ToSnakeCase(name); snake != name {
		a.addExact(snake, key)
	}
}

func (a *aliasTable) addExact(name string, key TypeKey) {
	for _, existing := range a.exact[name] {
		if existing.Equal(key) {
			return
		}
	}
	a.exact[name] = append(a.exact[name], key)
}

// removeExact drops the candidate entry pointing at key under name's exact
// spelling only -- the converse of addExact, used to retract a single
// AddAlias entry without touching the lowercase/snake_case forms a
// type-derived alias also occupies.
func (a *aliasTable) removeExact(name string, key TypeKey) {
	candidates := a.exact[name]
	filtered := candidates[:0]
	for _, c := range candidates {
		if !c.Equal(key) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		delete(a.exact, name)
	} else {
		a.exact[name] = filtered
	}
}

// lookup returns the single candidate TypeKey registered for name, or false
// if there is no candidate or more than one (an ambiguous alias never
// auto-resolves).
func (a *aliasTable) lookup(name string) (TypeKey, bool) {
	if candidates, ok := a.exact[name]; ok && len(candidates) == 1 {
		return candidates[0], true
	}
	if candidates, ok := a.exact[strings.ToLower(name)]; ok && len(candidates) == 1 {
		return candidates[0], true
	}
	if candidates, ok := a.exact[ToSnakeCase(name)]; ok && len(candidates) == 1 {
		return candidates[0], true
	}
	return TypeKey{}, false
}

// ToSnakeCase converts a Go identifier (typically a simple type name such
// as "HTTPServer" or "UserID") into snake_case. An underscore is inserted
// before an uppercase rune that follows a lowercase-or-digit rune, and
// before the last uppercase rune of a run when that run is followed by a
// lowercase rune -- so consecutive-uppercase acronyms stay glued to the
// word they introduce: "HTTPServer" -> "http_server", "UserID" ->
// "user_id", "ID" -> "id".
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	n := len(runes)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLowerOrDigit := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < n && unicode.IsLower(runes[i+1])
			startOfRun := i == 0 || !unicode.IsUpper(runes[i-1])
			if i > 0 && (prevLowerOrDigit || (nextLower && !startOfRun)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
