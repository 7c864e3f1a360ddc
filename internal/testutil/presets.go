package testutil

import "time"

// WithStandardTestData adds a small mixed dataset: an in-progress draft,
// a frozen session awaiting send, a retired one, and another user's work.
func (b *Builder) WithStandardTestData() *Builder {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	withEmail := func(item ItemData, name, supplier string) ItemData {
		item.ProductName = name
		item.SupplierName = supplier
		return item
	}

	return b.
		WithSession("sess-draft",
			Name("Restock 2026-08-30"), Status("draft"),
			Items(
				withEmail(Item("prod-espresso", 12, "orders@roastery.example"), "Espresso beans 1kg", "Roastery"),
				withEmail(Item("prod-filters", 200, "sales@paperco.example"), "V60 filters", "PaperCo"),
			),
			CreatedAt(now), UpdatedAt(now)).
		WithSession("sess-ready",
			Name("Restock 2026-08-29"), Status("email_generated"),
			Items(Item("prod-cups", 500, "orders@cupworld.example")),
			CreatedAt(yesterday), UpdatedAt(yesterday)).
		WithSession("sess-sent",
			Name("Restock 2026-08-23"), Status("sent"),
			Items(Item("prod-lids", 500, "orders@cupworld.example")),
			CreatedAt(lastWeek), UpdatedAt(lastWeek)).
		WithSession("sess-other",
			ForUser("user-other"), Name("Bar restock"), Status("draft"),
			CreatedAt(yesterday), UpdatedAt(now))
}
