package shared

import "fmt"

// CheckinCooldownKey builds the redis key reserving a (user, checkpoint)
// cooldown window.
func CheckinCooldownKey(userID, checkpointID string) string {
	return fmt.Sprintf("checkin:cooldown:%s:%s", userID, checkpointID)
}
