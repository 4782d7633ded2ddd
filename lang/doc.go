// Package lang compiles templates that mix literal text with embedded
// expression tags into reusable renderers.
//
// Two tag families are built in. Native tags hold statement code:
//
//	<% if (user) { %>
//	  <h2><%= user.name %></h2>
//	<% } %>
//
// Brace tags hold directives:
//
//	{{if user}}
//	  <h2>{{user.name | upper}}</h2>
//	{{/if}}
//
// Compilation runs in stages: [Tokenize] splits the source into literal
// and expression tokens, a [Syntax] rewrites each expression tag into
// statement code, and the [Compiler] resolves every free name against the
// builtins, the import table and the data value, then assembles the
// statements into a program. Expressions are evaluated by expr-lang with
// loose operators: || and && return an operand, ! and ?: test truthiness
// and + concatenates text.
//
// Failures are reported as [*Diagnostic] values naming the template line
// and tag responsible.
package lang
