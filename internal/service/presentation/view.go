package presentation

import (
	"fmt"
	"time"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

type Entry struct {
	Fields []Field `json:"fields"`
}

// Section is a titled block of the occurrence page. Attribute sections use
// Fields; collection sections use Entries.
type Section struct {
	Title   string  `json:"title"`
	Fields  []Field `json:"fields,omitempty"`
	Entries []Entry `json:"entries,omitempty"`
}

type View struct {
	OccurrenceID int64     `json:"occurrence_id"`
	Title        string    `json:"title"`
	Sections     []Section `json:"sections"`
}

// Renderer turns aggregates into views. It is safe for concurrent use.
type Renderer struct {
	layout string
	loc    *time.Location
}

func NewRenderer(layout, timeZone string) (*Renderer, error) {
	if layout == "" {
		layout = time.RFC3339
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", timeZone, err)
	}
	return &Renderer{layout: layout, loc: loc}, nil
}

func (r *Renderer) formatTime(t time.Time) string {
	return t.In(r.loc).Format(r.layout)
}

func (r *Renderer) Render(agg *model.OccurrenceAggregate) View {
	view := View{
		OccurrenceID: agg.OccurrenceID,
		Title:        fmt.Sprintf("Occurrence #%d", agg.OccurrenceID),
	}

	var basic fieldList
	basic.add("User", agg.UserName)
	basic.add("Project", agg.ProjectName)
	basic.add("Individual ID", agg.IndividualID)
	basic.add("Lifestage", agg.Lifestage)
	basic.add("Sex", agg.Sex)
	basic.add("Body Length", agg.BodyLength)
	basic.add("Language ID", agg.LanguageID)
	basic.add("Date Created", r.formatTime(agg.CreatedAt))
	basic.add("Note", agg.Note)
	view.addFields("Basic Information", basic)

	var location fieldList
	location.add("Place Name", agg.PlaceName)
	location.add("Latitude", agg.Latitude)
	location.add("Longitude", agg.Longitude)
	view.addFields("Location", location)

	if c := agg.Classification; c != nil {
		var taxa fieldList
		taxa.add("Kingdom", c.Kingdom)
		taxa.add("Phylum", c.Phylum)
		taxa.add("Class", c.Class)
		taxa.add("Order", c.Order)
		taxa.add("Family", c.Family)
		taxa.add("Genus", c.Genus)
		taxa.add("Species", c.Species)
		taxa.add("Others", c.Others)
		view.addFields("Classification", taxa)
	}

	observations := make([]Entry, 0, len(agg.Observations))
	for _, o := range agg.Observations {
		var f fieldList
		f.add("Observer", o.ObserverName)
		f.add("Method", o.MethodName)
		f.add("Observed At", r.formatTime(o.ObservedAt))
		f.add("Behavior", o.Behavior)
		observations = append(observations, Entry{Fields: f})
	}
	view.addEntries("Observations", observations)

	specimens := make([]Entry, 0, len(agg.Specimens))
	for _, s := range agg.Specimens {
		var f fieldList
		f.add("Preparator", s.PreparatorName)
		f.add("Method", s.MethodName)
		f.add("Date Prepared", r.formatTime(s.CreatedAt))
		f.add("Institution", s.InstitutionCode)
		f.add("Collection ID", s.CollectionID)
		specimens = append(specimens, Entry{Fields: f})
	}
	view.addEntries("Specimens", specimens)

	identifications := make([]Entry, 0, len(agg.Identifications))
	for _, id := range agg.Identifications {
		var f fieldList
		f.add("Identifier", id.IdentifierName)
		f.add("Date Identified", r.formatTime(id.IdentifiedAt))
		f.add("Source Info", id.SourceInfo)
		identifications = append(identifications, Entry{Fields: f})
	}
	view.addEntries("Identifications", identifications)

	attachments := make([]Entry, 0, len(agg.Attachments))
	for _, a := range agg.Attachments {
		var f fieldList
		f.add("File", a.DisplayName())
		f.add("Note", a.Note)
		attachments = append(attachments, Entry{Fields: f})
	}
	view.addEntries("Attachments", attachments)

	return view
}

// addFields adds the section even when every attribute was omitted; the
// heading stays so pages keep the same layout.
func (v *View) addFields(title string, fields fieldList) {
	v.Sections = append(v.Sections, Section{Title: title, Fields: fields})
}

// addEntries always adds the section; the count is part of the title.
func (v *View) addEntries(title string, entries []Entry) {
	v.Sections = append(v.Sections, Section{
		Title:   fmt.Sprintf("%s (%d)", title, len(entries)),
		Entries: entries,
	})
}
