// Package markdown renders page bodies with goldmark.
//
// Rendering rules are held in an explicit RuleTable keyed by node kind. The
// table is seeded with goldmark's HTML renderer and individual rules are
// replaced with Override, which hands the previous rule to the new one so it
// can delegate after adjusting the node.
package markdown
