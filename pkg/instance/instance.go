package instance

import "github.com/angelmondragon/hydrus-backend/pkg/env"

const defaultID = "worker-0"

// GetID returns the identifier workers attach to their logs: HYDRUS_INSTANCE_ID,
// then the container hostname.
func GetID() string {
	if id, ok := env.Lookup("HYDRUS_INSTANCE_ID", "HOSTNAME"); ok {
		return id
	}
	return defaultID
}
