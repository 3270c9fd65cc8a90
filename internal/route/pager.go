package route

// Pager describes the previous/next navigation under a listing.
type Pager struct {
	Section   string
	Page      int
	PageCount int
	PrevURL   string
	NextURL   string
}

// NewPager builds navigation for page out of pageCount under section.
// Page and pageCount are raised to at least 1. A page past the end is kept,
// and its previous link points at the last page.
func NewPager(section string, page, pageCount int) Pager {
	if pageCount < 1 {
		pageCount = 1
	}
	p := Pager{Section: Normalize(section), Page: page, PageCount: pageCount}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.HasPrev() {
		p.PrevURL = PageURL(p.Section, min(p.Page-1, pageCount))
	}
	if p.HasNext() {
		p.NextURL = PageURL(p.Section, p.Page+1)
	}
	return p
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pager) HasNext() bool { return p.Page < p.PageCount }

// Pages lists every page number with its URL, for jump links.
func (p Pager) Pages() []PageLink {
	links := make([]PageLink, 0, p.PageCount)
	for i := 1; i <= p.PageCount; i++ {
		links = append(links, PageLink{Number: i, URL: PageURL(p.Section, i), Current: i == p.Page})
	}
	return links
}

// PageLink is one numbered link of a Pager.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}
