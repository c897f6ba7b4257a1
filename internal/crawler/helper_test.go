package crawler

import (
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/modscan/internal/source"
	"github.com/nao1215/modscan/internal/source/sourcetest"
)

// fakeClock returns strictly increasing times, one second apart.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// recorder collects every observed event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofKind(k Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func manifestSource(name, summary string) []byte {
	return fmt.Appendf(nil, "# generated\n{\n    'name': %q,\n    'summary': %q,\n    'installable': True,\n}\n", name, summary)
}

var fixtureOrganizations = []string{"zeta", "acme", "beta"}

var fixtureVersions = []string{"11", "12"}

// fixtureRecordCount is the number of records a full crawl of newFixture writes.
const fixtureRecordCount = 9

// newFixture builds three organizations exercising every traversal rule:
//
//	acme/.github       reserved repository
//	acme/accounting    11.0: account_a, account_b; 12.0: account_a, account_docs (no manifest),
//	                   setup and .tx (reserved), README.md (file)
//	acme/sale          no 11.0; 12.0: sale_a, sale_b (invalid manifest), sale_c
//	acme/web-fork      fork
//	beta/tools         11.0: tool_x; 12.0: tool_x, tool_y
//	zeta/misc          no 11.0; 12.0: misc_a
func newFixture() *sourcetest.Tree {
	tree := sourcetest.New()

	github := tree.AddRepository("acme", source.Repository{Name: ".github"})
	tree.AddFile(github.FullName, "11.0", "profile/__manifest__.py", manifestSource("Profile", ""))

	accounting := tree.AddRepository("acme", source.Repository{Name: "accounting", Stars: 42})
	tree.AddFile(accounting.FullName, "11.0", "account_a/__manifest__.py", manifestSource("Account A", "First accounting module"))
	tree.AddFile(accounting.FullName, "11.0", "account_b/__manifest__.py", manifestSource("Account B", ""))
	tree.AddFile(accounting.FullName, "12.0", "account_a/__manifest__.py", manifestSource("Account A", "Ported to 12"))
	tree.AddFile(accounting.FullName, "12.0", "account_docs/index.rst", []byte("docs"))
	tree.AddFile(accounting.FullName, "12.0", "setup/account_a/__manifest__.py", manifestSource("Setup", ""))
	tree.AddFile(accounting.FullName, "12.0", ".tx/__manifest__.py", manifestSource("Transifex", ""))
	tree.AddFile(accounting.FullName, "12.0", "README.md", []byte("# accounting"))

	sale := tree.AddRepository("acme", source.Repository{Name: "sale", Stars: 7})
	tree.AddFile(sale.FullName, "12.0", "sale_a/__manifest__.py", manifestSource("Sale A", "a"))
	tree.AddFile(sale.FullName, "12.0", "sale_b/__manifest__.py", []byte("{'summary': 'no name'}"))
	tree.AddFile(sale.FullName, "12.0", "sale_c/__manifest__.py", manifestSource("Sale C", "c"))

	fork := tree.AddRepository("acme", source.Repository{Name: "web-fork", Fork: true})
	tree.AddFile(fork.FullName, "12.0", "web_a/__manifest__.py", manifestSource("Web A", ""))

	tools := tree.AddRepository("beta", source.Repository{Name: "tools", Stars: 3})
	tree.AddFile(tools.FullName, "11.0", "tool_x/__manifest__.py", manifestSource("Tool X", "x"))
	tree.AddFile(tools.FullName, "12.0", "tool_x/__manifest__.py", manifestSource("Tool X", "x"))
	tree.AddFile(tools.FullName, "12.0", "tool_y/__manifest__.py", manifestSource("Tool Y", "y"))

	misc := tree.AddRepository("zeta", source.Repository{Name: "misc"})
	tree.AddFile(misc.FullName, "12.0", "misc_a/__manifest__.py", manifestSource("Misc A", ""))

	return tree
}

func newFixtureEngine(tree *sourcetest.Tree, clock *fakeClock, opts ...Option) *Engine {
	base := []Option{
		WithOrganizations(fixtureOrganizations...),
		WithVersions(fixtureVersions...),
		WithClock(clock.Now),
	}
	return New(tree, append(base, opts...)...)
}
