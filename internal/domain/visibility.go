package domain

import "encoding/json"

// VisibleAnswer is one answer of another guest as shown on an invitation page.
type VisibleAnswer struct {
	Answer    json.RawMessage `json:"answer"`
	GuestName string          `json:"guest_name"`
}

// Viewer identifies who is looking at an invitation page.
type Viewer struct {
	InvitationID string
	Organizer    bool
}

const unconfirmedSuffix = " (?)"

// FilterOtherAnswers decides which answers of the other guests of a party a
// viewer may see.
//
// Organizers see everything. If the party has an attendance block, names of
// guests who have not answered it with yes get a " (?)" suffix.
//
// Everyone else sees public blocks only, and only for guests attending. The
// attendance answer itself is exempt from the attendance gate and shown as
// soon as the party has any public block. Guests left without any visible
// answer are omitted.
//
// The viewer's own invitation is never part of the result. Input order is kept.
func FilterOtherAnswers(viewer Viewer, blocks []Block, others []InvitationAnswers) []map[string]VisibleAnswer {
	publicIDs := PublicBlockIDs(blocks)
	attendanceID := AttendanceBlockID(blocks)

	out := make([]map[string]VisibleAnswer, 0, len(others))
	for _, other := range others {
		if other.InvitationID == viewer.InvitationID {
			continue
		}
		answers := ParseAnswers(other.Answers)
		name := other.GuestName()

		if viewer.Organizer {
			if attendanceID != "" && !IsAttending(answers[attendanceID]) {
				name += unconfirmedSuffix
			}
			entry := make(map[string]VisibleAnswer, len(answers))
			for id, v := range answers {
				entry[id] = VisibleAnswer{Answer: v, GuestName: name}
			}
			out = append(out, entry)
			continue
		}

		attending := attendanceID == "" || IsAttending(answers[attendanceID])
		entry := make(map[string]VisibleAnswer)
		for id, v := range answers {
			switch {
			case attendanceID != "" && id == attendanceID:
				if len(publicIDs) > 0 {
					entry[id] = VisibleAnswer{Answer: v, GuestName: name}
				}
			case publicIDs[id] && attending:
				entry[id] = VisibleAnswer{Answer: v, GuestName: name}
			}
		}
		if len(entry) > 0 {
			out = append(out, entry)
		}
	}
	return out
}
