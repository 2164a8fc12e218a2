package kafka

import "fmt"

// TopicPrefix namespaces every Crealith topic.
const TopicPrefix = "crealith"

// Topic builds a fully qualified topic name from a domain and an action,
// e.g. Topic("user", "registered") -> "crealith.user.registered".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
