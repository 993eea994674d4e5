package resolve

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/parser"
)

// callContext classifies the control-flow construct enclosing a call site
// by walking ancestor nodes outward until the function boundary. The
// nearest construct wins. Calls outside any construct return nil.
//
// For a conditional the call site must descend from the then or the else
// branch specifically; both branches share the same if_expression node, so
// membership is tested against each branch subtree. A call inside the
// condition itself belongs to neither branch and the walk continues
// outward.
func (r *resolver) callContext(call, fn *sitter.Node) *graph.ControlFlowContext {
	for cur := call.Parent(); cur != nil && cur != fn; cur = cur.Parent() {
		switch cur.Type() {
		case "function_item":
			return nil
		case "if_expression":
			cond := parser.CollapseWhitespace(r.src.FieldText(cur, "condition"))
			if alt := r.src.Field(cur, "alternative"); parser.Contains(alt, call) {
				return &graph.ControlFlowContext{Type: graph.CtxElse, Condition: cond}
			}
			if cons := r.src.Field(cur, "consequence"); parser.Contains(cons, call) {
				return &graph.ControlFlowContext{Type: graph.CtxIf, Condition: cond}
			}
		case "match_arm":
			return &graph.ControlFlowContext{
				Type:    graph.CtxMatchArm,
				Pattern: parser.CollapseWhitespace(r.src.FieldText(cur, "pattern")),
			}
		case "loop_expression":
			return &graph.ControlFlowContext{Type: graph.CtxLoop}
		case "while_expression":
			if body := r.src.Field(cur, "body"); parser.Contains(body, call) {
				return &graph.ControlFlowContext{
					Type:      graph.CtxWhile,
					Condition: parser.CollapseWhitespace(r.src.FieldText(cur, "condition")),
				}
			}
		case "for_expression":
			if body := r.src.Field(cur, "body"); parser.Contains(body, call) {
				return &graph.ControlFlowContext{
					Type:     graph.CtxFor,
					Binding:  parser.CollapseWhitespace(r.src.FieldText(cur, "pattern")),
					Iterable: parser.CollapseWhitespace(r.src.FieldText(cur, "value")),
				}
			}
		}
	}
	return nil
}
