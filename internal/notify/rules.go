package notify

// Audience describes the comment being fanned out, in agent ids.
type Audience struct {
	Actor      string
	PostAuthor string
}

// Rule removes a candidate recipient.
type Rule struct {
	Name     string
	Excludes func(candidate string, a Audience) bool
}

// ReplyExclusions apply to reply recipients.
var ReplyExclusions = []Rule{
	{Name: "no-self-reply", Excludes: isActor},
}

// ThreadUpdateExclusions apply to thread participants, in order. The post
// author is always removed here: replies already reach them.
var ThreadUpdateExclusions = []Rule{
	{Name: "actor", Excludes: isActor},
	{Name: "post-author", Excludes: func(candidate string, a Audience) bool {
		return candidate == a.PostAuthor
	}},
}

func isActor(candidate string, a Audience) bool {
	return candidate == a.Actor
}

// Apply returns candidates no rule excludes, deduplicated, in input order.
func Apply(rules []Rule, candidates []string, a Audience) []string {
	out := make([]string, 0, len(candidates))
	seen := map[string]struct{}{}
next:
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		for _, r := range rules {
			if r.Excludes(c, a) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}
