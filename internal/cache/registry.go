package cache

// Default capacities per namespace. Quotes and extended-hours data churn
// fastest; resolver results are tiny so the namespace is larger.
const (
	DefaultQuoteCapacity    = 100
	DefaultDividendCapacity = 100
	DefaultNewsCapacity     = 100
	DefaultMetadataCapacity = 100
	DefaultResolverCapacity = 200
)

// Registry owns the process-wide cache namespaces. It is constructed once
// and injected into the merge engine and resolver, never imported as
// ambient global state. Namespaces are independent: they share neither
// capacity nor keys.
type Registry struct {
	Quotes        *Namespace
	ExtendedHours *Namespace
	Dividends     *Namespace
	News          *Namespace
	Metadata      *Namespace
	Resolver      *Namespace
}

// NewRegistry creates all namespaces with default capacities.
func NewRegistry() *Registry {
	return &Registry{
		Quotes:        NewNamespace("quotes", DefaultQuoteCapacity),
		ExtendedHours: NewNamespace("extended_hours", DefaultQuoteCapacity),
		Dividends:     NewNamespace("dividends", DefaultDividendCapacity),
		News:          NewNamespace("news", DefaultNewsCapacity),
		Metadata:      NewNamespace("metadata", DefaultMetadataCapacity),
		Resolver:      NewNamespace("resolver", DefaultResolverCapacity),
	}
}

// All returns every namespace, for maintenance sweeps and stats reporting.
func (r *Registry) All() []*Namespace {
	return []*Namespace{r.Quotes, r.ExtendedHours, r.Dividends, r.News, r.Metadata, r.Resolver}
}

// Stats returns a snapshot for every namespace.
func (r *Registry) Stats() []Stats {
	namespaces := r.All()
	stats := make([]Stats, 0, len(namespaces))
	for _, ns := range namespaces {
		stats = append(stats, ns.Stats())
	}
	return stats
}
