package payments

// Catalog is the merchant's static definition of purchasable items and
// subscription plans. It is read-only after construction, so lookups are
// safe from any goroutine.
type Catalog struct {
	items map[string]CatalogItem
	plans map[string]SubscriptionPlan
}

// NewCatalog builds a catalog from explicit item and plan lists.
func NewCatalog(items []CatalogItem, plans []SubscriptionPlan) *Catalog {
	c := &Catalog{
		items: make(map[string]CatalogItem, len(items)),
		plans: make(map[string]SubscriptionPlan, len(plans)),
	}
	for _, it := range items {
		c.items[it.ItemID] = it
	}
	for _, p := range plans {
		c.plans[p.ItemID] = p
	}
	return c
}

// DefaultCatalog returns the products sold by the snowfall widget.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]CatalogItem{
			{
				ItemID: "convert_all_1",
				Title:  "Превратить все снежинки",
				Price:  1,
			},
		},
		[]SubscriptionPlan{
			{
				ItemID:     "winter_pass_30",
				Title:      "Зимний пропуск на месяц",
				Price:      5,
				PeriodDays: 30,
				TrialDays:  3,
			},
		},
	)
}

// ResolveItem looks up a one-time item by id.
func (c *Catalog) ResolveItem(itemID string) (CatalogItem, bool) {
	it, ok := c.items[itemID]
	return it, ok
}

// ResolvePlan looks up a subscription plan by id.
func (c *Catalog) ResolvePlan(itemID string) (SubscriptionPlan, bool) {
	p, ok := c.plans[itemID]
	return p, ok
}
