package parser

import "strings"

// ReferencesOuterAlias reports whether sql contains a qualified reference
// ("alias.col") to one of the outer aliases that is not shadowed by a local
// FROM/JOIN alias inside sql. Unlexable SQL reports false to avoid false
// positives.
func ReferencesOuterAlias(sql string, outer map[string]struct{}) bool {
	toks, err := lex(sql)
	if err != nil {
		return false
	}

	local := map[string]struct{}{}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent {
			continue
		}
		switch strings.ToLower(t.text) {
		case "from", "join":
			if name, alias, n := scanTableRef(toks[i+1:]); n > 0 {
				key := alias
				if key == "" {
					parts := strings.Split(name, ".")
					key = parts[len(parts)-1]
				}
				local[strings.ToLower(key)] = struct{}{}
				i += n
			}
		}
	}

	for i := 0; i+1 < len(toks); i++ {
		if toks[i].kind != tokIdent && toks[i].kind != tokQuotedIdent {
			continue
		}
		if toks[i+1].kind != tokOp || toks[i+1].text != "." {
			continue
		}
		root := strings.ToLower(toks[i].text)
		if _, isLocal := local[root]; isLocal {
			continue
		}
		if _, isOuter := outer[root]; isOuter {
			return true
		}
	}
	return false
}

// scanTableRef reads "name[.name...] [AS] [alias]" from the token stream and
// returns the dotted name, the alias if present, and tokens consumed.
func scanTableRef(toks []token) (name, alias string, consumed int) {
	i := 0
	if i >= len(toks) || (toks[i].kind != tokIdent && toks[i].kind != tokQuotedIdent) {
		return "", "", 0
	}
	name = toks[i].text
	i++
	for i+1 < len(toks) && toks[i].kind == tokOp && toks[i].text == "." &&
		(toks[i+1].kind == tokIdent || toks[i+1].kind == tokQuotedIdent) {
		name += "." + toks[i+1].text
		i += 2
	}
	if i < len(toks) && toks[i].kind == tokIdent && strings.EqualFold(toks[i].text, "as") {
		i++
	}
	if i < len(toks) && (toks[i].kind == tokQuotedIdent ||
		(toks[i].kind == tokIdent && !reserved[strings.ToLower(toks[i].text)])) {
		alias = toks[i].text
		i++
	}
	return name, alias, i
}
