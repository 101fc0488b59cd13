package book

// TOC is the ordered table of contents for a build, with draft chapters
// already filtered out.
type TOC struct {
	Chapters []*Chapter
	Parts    []Part

	prev map[*Chapter]*Chapter
	next map[*Chapter]*Chapter
}

// Part groups consecutive chapters that share a part label.
type Part struct {
	Title    string
	Chapters []*Chapter
}

// NewTOC builds a table of contents from scanned chapters, dropping drafts
// unless includeDrafts is set. Input order (weight, then path) is preserved.
func NewTOC(chapters []*Chapter, includeDrafts bool) *TOC {
	toc := &TOC{
		prev: make(map[*Chapter]*Chapter),
		next: make(map[*Chapter]*Chapter),
	}

	for _, ch := range chapters {
		if ch.Draft && !includeDrafts {
			continue
		}
		toc.Chapters = append(toc.Chapters, ch)
	}

	for i, ch := range toc.Chapters {
		if i > 0 {
			toc.prev[ch] = toc.Chapters[i-1]
			toc.next[toc.Chapters[i-1]] = ch
		}
	}

	// Group consecutive chapters into parts. Chapters without a part label
	// form unnamed singleton groups so sidebar ordering stays stable.
	for _, ch := range toc.Chapters {
		n := len(toc.Parts)
		if n > 0 && toc.Parts[n-1].Title == ch.Part {
			toc.Parts[n-1].Chapters = append(toc.Parts[n-1].Chapters, ch)
			continue
		}
		toc.Parts = append(toc.Parts, Part{Title: ch.Part, Chapters: []*Chapter{ch}})
	}

	return toc
}

// Prev returns the chapter preceding ch in reading order, or nil.
func (t *TOC) Prev(ch *Chapter) *Chapter { return t.prev[ch] }

// Next returns the chapter following ch in reading order, or nil.
func (t *TOC) Next(ch *Chapter) *Chapter { return t.next[ch] }

// BySlug returns the chapter with the given slug, or nil.
func (t *TOC) BySlug(slug string) *Chapter {
	for _, ch := range t.Chapters {
		if ch.Slug == slug {
			return ch
		}
	}
	return nil
}
