// Package outputs derives where a format writes and how its output node is
// configured. Build is pure: the same root, filename and spec always produce
// the same plan.
package outputs
