package service

// ShouldPublish is the publication gate. A post is visible unless the
// classifier flagged a false claim or the author already holds negative fame
// in any of the classified topics. fame maps topic to the author's current
// numeric fame value and must be read before any adjustment for this post.
func ShouldPublish(containsFalseClaim bool, topics []uint, fame map[uint]int) bool {
	if containsFalseClaim {
		return false
	}
	for _, topic := range topics {
		if value, ok := fame[topic]; ok && value < 0 {
			return false
		}
	}
	return true
}
