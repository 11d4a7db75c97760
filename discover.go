package frameble

import (
	"context"
	"fmt"
	"time"
)

// ScanForFrames scans for Frame devices advertising the profile's service
// UUID until the timeout elapses, returning every device seen.
func ScanForFrames(adapter Adapter, profile Profile, timeout time.Duration) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("frameble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, profile.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("frameble: scan: %w", err)
	}
	return devices, nil
}
