package cache

import (
	"fmt"
	"strings"
)

const keySeparator = ":"

var keyEscaper = strings.NewReplacer(`\`, `\\`, keySeparator, `\`+keySeparator)

// BuildKey joins a namespace and its ordered parameters into one key.
//
// Every element is escaped before joining, so distinct (namespace, params)
// tuples never produce the same key: ("a", "b:c") and ("a", "b", "c") stay
// apart, and so do ("a") and ("a", ""). Parameters are rendered with
// fmt.Sprint. Callers must pass parameters in a stable order per namespace;
// BuildKey("team-stats", "DAL", 2024) and BuildKey("team-stats", 2024, "DAL")
// are different keys.
func BuildKey(namespace string, params ...any) string {
	var b strings.Builder
	b.WriteString(keyEscaper.Replace(namespace))
	for _, p := range params {
		b.WriteString(keySeparator)
		b.WriteString(keyEscaper.Replace(fmt.Sprint(p)))
	}
	return b.String()
}

// NamespacePrefix is the prefix shared by every parameterized key of ns.
func NamespacePrefix(namespace string) string {
	return keyEscaper.Replace(namespace) + keySeparator
}

// inNamespace reports whether key was built for namespace.
func inNamespace(key, namespace string) bool {
	escaped := keyEscaper.Replace(namespace)
	return key == escaped || strings.HasPrefix(key, escaped+keySeparator)
}
