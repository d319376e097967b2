// Package ownership decides whether an acting identity may mutate an owned
// resource.
package ownership

// Owned is any resource that exposes its owning user id.
type Owned interface {
	OwnedBy() string
}

// CanMutate reports whether the actor owns the resource. An empty actor id
// never matches.
func CanMutate(resource Owned, actorID string) bool {
	return actorID != "" && resource.OwnedBy() == actorID
}

// CanMutateBoth requires the actor to own both resources. Each ownership
// relation is evaluated as its own equality check and the two results are
// ANDed; the checks are never collapsed into a single comparison.
func CanMutateBoth(first Owned, second Owned, actorID string) bool {
	ownsFirst := CanMutate(first, actorID)
	ownsSecond := CanMutate(second, actorID)
	return ownsFirst && ownsSecond
}
