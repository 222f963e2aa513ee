package workload

import (
	"fmt"
	"strconv"
	"strings"
)

// ResourceLimits caps a container's memory and CPU.
type ResourceLimits struct {
	Memory string // "512m", "1g", "256Mi"
	CPUs   string // "0.5", "2", "500m"
}

// ParseMemory converts a memory string to bytes. Suffixes k, m, g, t and
// their Ki/Mi/Gi/Ti forms are powers of 1024; no suffix means bytes.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("workload: empty memory string")
	}

	num := strings.TrimSuffix(s, "i")
	shift := 0
	if n := len(num); n > 0 {
		switch num[n-1] {
		case 'k':
			shift = 10
		case 'm':
			shift = 20
		case 'g':
			shift = 30
		case 't':
			shift = 40
		}
		if shift > 0 {
			num = num[:n-1]
		}
	}
	if shift == 0 && num != s {
		return 0, fmt.Errorf("workload: parse memory %q: unknown unit", s)
	}

	val, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("workload: parse memory %q: %w", s, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("workload: memory must be non-negative: %d", val)
	}
	return val << shift, nil
}

// ParseCPU converts a CPU string to nanocores: "0.5" cores or "500m"
// millicores.
func ParseCPU(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("workload: empty CPU string")
	}

	scale := 1e9
	if milli, ok := strings.CutSuffix(s, "m"); ok {
		s, scale = milli, 1e6
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("workload: parse CPU %q: %w", s, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("workload: CPU must be positive: %s", s)
	}
	return int64(val * scale), nil
}

// Validate parses both limits.
func (r *ResourceLimits) Validate() error {
	if r == nil {
		return nil
	}
	if r.Memory != "" {
		if _, err := ParseMemory(r.Memory); err != nil {
			return err
		}
	}
	if r.CPUs != "" {
		if _, err := ParseCPU(r.CPUs); err != nil {
			return err
		}
	}
	return nil
}
