package redis

import "fmt"

// keys builds the Redis keys for one prefix
type keys struct {
	prefix string
}

// account returns the key holding the JSON document for an account
func (k keys) account(id string) string {
	return fmt.Sprintf("%s:account:%s", k.prefix, id)
}

// nameIndex returns the key for the name_lower -> uuid index
func (k keys) nameIndex(nameLower string) string {
	return fmt.Sprintf("%s:idx:name_lower:%s", k.prefix, nameLower)
}
