package rdme

import (
	"encoding/json"
	"fmt"
)

// ValidateTrajectory performs consistency checks on a trajectory, typically
// after decoding one from JSON:
//   - dimensions are positive and the count buffer matches them
//   - output times are strictly increasing
//   - the recorded-frame count is within bounds
//   - every recorded count is non-negative
func ValidateTrajectory(tr *Trajectory) error {
	if tr.Mspecies <= 0 || tr.Ncells <= 0 {
		return fmt.Errorf("trajectory has invalid dimensions %d species x %d cells", tr.Mspecies, tr.Ncells)
	}
	if len(tr.Times) == 0 {
		return fmt.Errorf("trajectory has no output times")
	}
	if len(tr.Counts) != tr.Mspecies*tr.Ncells*len(tr.Times) {
		return fmt.Errorf("trajectory has %d counts, want %d", len(tr.Counts), tr.Mspecies*tr.Ncells*len(tr.Times))
	}
	for i := 1; i < len(tr.Times); i++ {
		if tr.Times[i] <= tr.Times[i-1] {
			return fmt.Errorf("trajectory times not strictly increasing at index %d", i)
		}
	}
	if tr.Recorded < 0 || tr.Recorded > len(tr.Times) {
		return fmt.Errorf("trajectory records %d frames of %d", tr.Recorded, len(tr.Times))
	}
	for i, n := range tr.Counts[:tr.Recorded*tr.Ncells*tr.Mspecies] {
		if n < 0 {
			return fmt.Errorf("trajectory has negative count %d at flat index %d", n, i)
		}
	}
	return nil
}

// EncodeTrajectoryJSON encodes a trajectory to JSON format.
// Returns the JSON bytes and any encoding error.
func EncodeTrajectoryJSON(tr *Trajectory) ([]byte, error) {
	data, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trajectory: %w", err)
	}
	return data, nil
}

// DecodeTrajectoryJSON decodes a trajectory from JSON format and validates
// it. Returns the decoded trajectory and any error.
func DecodeTrajectoryJSON(data []byte) (*Trajectory, error) {
	var tr Trajectory
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode trajectory: %w", err)
	}
	if err := ValidateTrajectory(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
