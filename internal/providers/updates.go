package providers

// DetectUpdates splits the series of baseline into those whose chapter URL
// differs from the one in current and all the others.
//
// current maps a series URL to the newest chapter URL a site shows right now.
// A series missing from current counts as not updated: recent-updates pages
// are shallow and absence says nothing. Chapter URLs are compared as plain
// strings, nothing else.
//
// Both results follow baseline order and each series URL appears once, in
// the partition decided by its first baseline record.
func DetectUpdates(current map[string]string, baseline []LastChapter) (updated, notUpdated []string) {
	updated = []string{}
	notUpdated = []string{}
	seen := make(map[string]struct{}, len(baseline))

	for _, lc := range baseline {
		if _, ok := seen[lc.URL]; ok {
			continue
		}
		seen[lc.URL] = struct{}{}

		if latest, ok := current[lc.URL]; ok && latest != lc.ChapterURL {
			updated = append(updated, lc.URL)
			continue
		}

		notUpdated = append(notUpdated, lc.URL)
	}

	return updated, notUpdated
}
