package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/venuehall/venuesite/uploads"
)

type verifyResult struct {
	File       string        `json:"file,omitempty"`
	EventCount int           `json:"event_count"`
	Valid      bool          `json:"valid"`
	Checks     []checkResult `json:"checks"`
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "fail", "warn"
	Detail string `json:"detail,omitempty"`
}

const (
	checkPass = "pass"
	checkFail = "fail"
	checkWarn = "warn"
)

func (r *verifyResult) add(name, status, detail string) {
	if status == checkFail {
		r.Valid = false
	}
	r.Checks = append(r.Checks, checkResult{Name: name, Status: status, Detail: detail})
}

// verifyEventExport runs offline integrity checks over an export. Failures
// make the export invalid; warnings do not.
func verifyEventExport(export eventExport) verifyResult {
	result := verifyResult{
		EventCount: len(export.Events),
		Valid:      true,
	}

	if len(export.Events) == 0 {
		result.add("empty_list", checkPass, "no events to verify")
		return result
	}

	// 1. Required fields.
	missing := ""
	for i, ev := range export.Events {
		for _, f := range []struct{ name, value string }{
			{"name", ev.Name},
			{"date", ev.Date},
			{"time", ev.Time},
			{"planner", ev.Planner},
			{"image", ev.Image},
		} {
			if strings.TrimSpace(f.value) == "" {
				missing = fmt.Sprintf("event %d (id=%s) has no %s", i, ev.ID, f.name)
				break
			}
		}
		if missing != "" {
			break
		}
	}
	if missing == "" {
		result.add("required_fields", checkPass, "")
	} else {
		result.add("required_fields", checkFail, missing)
	}

	// 2. No duplicate IDs.
	seen := make(map[string]int, len(export.Events))
	dupDetail := ""
	for i, ev := range export.Events {
		if ev.ID == "" {
			continue
		}
		if prev, ok := seen[ev.ID]; ok {
			dupDetail = fmt.Sprintf("event %d and event %d share id=%s", prev, i, ev.ID)
			break
		}
		seen[ev.ID] = i
	}
	if dupDetail == "" {
		result.add("no_duplicate_ids", checkPass, "")
	} else {
		result.add("no_duplicate_ids", checkFail, dupDetail)
	}

	// 3. Image paths stay inside the uploads area.
	pathDetail := ""
	for i, ev := range export.Events {
		if err := checkImageRef(ev.Image); err != nil {
			pathDetail = fmt.Sprintf("event %d (id=%s) image %q: %v", i, ev.ID, ev.Image, err)
			break
		}
	}
	if pathDetail == "" {
		result.add("image_paths", checkPass, "")
	} else {
		result.add("image_paths", checkFail, pathDetail)
	}

	// 4. Creation order. Stores keep insertion order, so a regression
	// usually means the file was edited by hand.
	orderDetail := ""
	for i := 1; i < len(export.Events); i++ {
		prev, cur := export.Events[i-1].CreatedAt, export.Events[i].CreatedAt
		if !prev.IsZero() && !cur.IsZero() && cur.Before(prev) {
			orderDetail = fmt.Sprintf("event %d (createdAt=%s) is earlier than event %d", i, cur.Format("2006-01-02T15:04:05Z07:00"), i-1)
			break
		}
	}
	if orderDetail == "" {
		result.add("creation_order", checkPass, "")
	} else {
		result.add("creation_order", checkWarn, orderDetail)
	}

	return result
}

// checkImageRef accepts absolute http(s) URLs and upload paths, with or
// without the /uploads/ prefix, that resolve inside the uploads area.
func checkImageRef(image string) error {
	if image == "" {
		return nil
	}
	if strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "http://") {
		return nil
	}
	rel := strings.TrimPrefix(image, uploadsURLPrefix+"/")
	_, err := uploads.CleanRel(rel)
	return err
}

func printVerifyResult(w io.Writer, result verifyResult) {
	if result.File != "" {
		fmt.Fprintf(w, "Event export verification: %s\n", result.File)
	}
	fmt.Fprintf(w, "Events: %d\n\n", result.EventCount)

	failures, warnings := 0, 0
	for _, c := range result.Checks {
		tag := "[PASS]"
		switch c.Status {
		case checkFail:
			tag = "[FAIL]"
			failures++
		case checkWarn:
			tag = "[WARN]"
			warnings++
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "%s %s: %s\n", tag, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "%s %s\n", tag, c.Name)
		}
	}

	fmt.Fprintln(w)
	if result.Valid {
		fmt.Fprintln(w, "Result: VALID")
	} else {
		fmt.Fprintf(w, "Result: INVALID (%d error(s), %d warning(s))\n", failures, warnings)
	}
}
