package approval

import "sort"

// SortLines orders lines ascending by Order in place.
func SortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Order < lines[j].Order })
}

// ActiveLine returns the lowest-order waiting line, or nil when the request is
// terminal or nothing is waiting. Lines need not be sorted.
func ActiveLine(status RequestStatus, lines []Line) *Line {
	if status.Terminal() {
		return nil
	}
	var active *Line
	for i := range lines {
		l := &lines[i]
		if l.Status != LineWaiting {
			continue
		}
		if active == nil || l.Order < active.Order {
			active = l
		}
	}
	return active
}

// MaxOrder returns the highest order in use, 0 for an empty chain.
func MaxOrder(lines []Line) int {
	max := 0
	for _, l := range lines {
		if l.Order > max {
			max = l.Order
		}
	}
	return max
}

// Outcome derives the request status from its lines: rejected as soon as one
// line is rejected, approved once every line is approved, pending otherwise.
func Outcome(lines []Line) RequestStatus {
	if len(lines) == 0 {
		return RequestPending
	}
	approved := 0
	for _, l := range lines {
		switch l.Status {
		case LineRejected:
			return RequestRejected
		case LineApproved:
			approved++
		}
	}
	if approved == len(lines) {
		return RequestApproved
	}
	return RequestPending
}

// ChainApprovers returns the distinct approver ids of a chain in order.
func ChainApprovers(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.Approver]; ok {
			continue
		}
		seen[l.Approver] = struct{}{}
		out = append(out, l.Approver)
	}
	return out
}
