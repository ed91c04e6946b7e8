package render

import (
	"regexp"
	"strings"
)

var (
	displayDollar  = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	displayBracket = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	inlineParen    = regexp.MustCompile(`\\\((.+?)\\\)`)
	inlineDollar   = regexp.MustCompile(`\$([^\s$](?:[^$\n]*?[^\s$\\])?)\$`)
	fraction       = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtArg        = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	textArg        = regexp.MustCompile(`\\(?:text|mathrm|mathbf|mathit|operatorname)\{([^{}]*)\}`)
)

// Longer commands come before their prefixes (\infty before \in).
var texSymbols = strings.NewReplacer(
	`\alpha`, "α", `\beta`, "β", `\gamma`, "γ", `\delta`, "δ", `\epsilon`, "ε",
	`\varepsilon`, "ε", `\zeta`, "ζ", `\eta`, "η", `\theta`, "θ", `\iota`, "ι",
	`\kappa`, "κ", `\lambda`, "λ", `\mu`, "μ", `\nu`, "ν", `\xi`, "ξ", `\pi`, "π",
	`\rho`, "ρ", `\sigma`, "σ", `\tau`, "τ", `\upsilon`, "υ", `\varphi`, "φ",
	`\phi`, "φ", `\chi`, "χ", `\psi`, "ψ", `\omega`, "ω",
	`\Gamma`, "Γ", `\Delta`, "Δ", `\Theta`, "Θ", `\Lambda`, "Λ", `\Xi`, "Ξ",
	`\Pi`, "Π", `\Sigma`, "Σ", `\Phi`, "Φ", `\Psi`, "Ψ", `\Omega`, "Ω",
	`\infty`, "∞", `\int`, "∫", `\in`, "∈", `\notin`, "∉", `\sum`, "∑", `\prod`, "∏",
	`\partial`, "∂", `\nabla`, "∇", `\forall`, "∀", `\exists`, "∃", `\emptyset`, "∅",
	`\leftarrow`, "←", `\Leftrightarrow`, "⇔", `\leq`, "≤", `\left`, "", `\le`, "≤", `\geq`, "≥", `\ge`, "≥",
	`\neq`, "≠", `\neg`, "¬", `\ne`, "≠", `\approx`, "≈", `\equiv`, "≡", `\sim`, "∼",
	`\cdots`, "⋯", `\cdot`, "·", `\ldots`, "…", `\dots`, "…", `\times`, "×", `\div`, "÷", `\pm`, "±",
	`\rightarrow`, "→", `\right`, "", `\Rightarrow`, "⇒",
	`\iff`, "⇔", `\implies`, "⇒", `\to`, "→", `\mapsto`, "↦",
	`\subseteq`, "⊆", `\subset`, "⊂", `\supseteq`, "⊇", `\supset`, "⊃",
	`\cup`, "∪", `\cap`, "∩", `\land`, "∧", `\lor`, "∨", `\wedge`, "∧", `\vee`, "∨",
	`\sqrt`, "√", `\circ`, "∘", `\degree`, "°", `\angle`, "∠", `\perp`, "⊥",
	`\quad`, "  ", `\qquad`, "    ", `\,`, " ", `\;`, " ", `\!`, "",
	`\{`, "{", `\}`, "}",
	"^0", "⁰", "^1", "¹", "^2", "²", "^3", "³", "^4", "⁴",
	"^5", "⁵", "^6", "⁶", "^7", "⁷", "^8", "⁸", "^9", "⁹", "^n", "ⁿ",
	"_0", "₀", "_1", "₁", "_2", "₂", "_3", "₃", "_4", "₄",
	"_5", "₅", "_6", "₆", "_7", "₇", "_8", "₈", "_9", "₉",
)

// TeXToUnicode approximates a TeX expression with Unicode symbols. Unknown commands are
// kept as written.
func TeXToUnicode(expr string) string {
	s := fraction.ReplaceAllString(expr, "($1)/($2)")
	s = sqrtArg.ReplaceAllString(s, `\sqrt($1)`)
	s = textArg.ReplaceAllString(s, "$1")
	s = texSymbols.Replace(s)
	s = strings.NewReplacer("^{", "^(", "_{", "_(").Replace(s)
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	return strings.TrimSpace(s)
}

// SubstituteMath replaces $$…$$, \[…\], $…$ and \(…\) outside code with emphasized code
// spans holding a Unicode approximation. Unbalanced delimiters are left untouched.
func SubstituteMath(src string) string {
	if !strings.ContainsAny(src, `$\`) {
		return src
	}

	var out strings.Builder
	for _, seg := range splitCode(src) {
		if seg.code {
			out.WriteString(seg.text)
			continue
		}
		out.WriteString(substituteProse(seg.text))
	}
	return out.String()
}

func substituteProse(s string) string {
	display := func(m string, re *regexp.Regexp) string {
		inner := re.FindStringSubmatch(m)[1]
		return "\n\n" + mathSpan(inner) + "\n\n"
	}
	s = displayDollar.ReplaceAllStringFunc(s, func(m string) string { return display(m, displayDollar) })
	s = displayBracket.ReplaceAllStringFunc(s, func(m string) string { return display(m, displayBracket) })
	s = inlineParen.ReplaceAllStringFunc(s, func(m string) string {
		return mathSpan(inlineParen.FindStringSubmatch(m)[1])
	})
	return replaceInlineDollar(s)
}

// replaceInlineDollar skips matches followed by a digit so "$5 and $10" stays prose.
func replaceInlineDollar(s string) string {
	matches := inlineDollar.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		end := m[1]
		if end < len(s) && s[end] >= '0' && s[end] <= '9' {
			continue
		}
		out.WriteString(s[last:m[0]])
		out.WriteString(mathSpan(s[m[2]:m[3]]))
		last = end
	}
	out.WriteString(s[last:])
	return out.String()
}

func mathSpan(expr string) string {
	flat := strings.Join(strings.Fields(TeXToUnicode(expr)), " ")
	if flat == "" {
		return ""
	}
	return "*`" + flat + "`*"
}

type segment struct {
	text string
	code bool
}

// splitCode separates fenced blocks and inline code spans from prose.
func splitCode(src string) []segment {
	var segs []segment
	var prose strings.Builder
	flushProse := func() {
		if prose.Len() > 0 {
			segs = append(segs, segment{text: prose.String()})
			prose.Reset()
		}
	}

	lines := strings.SplitAfter(src, "\n")
	fence := ""
	var block strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if fence != "" {
			block.WriteString(line)
			if strings.HasPrefix(strings.TrimSpace(trimmed), fence) && strings.Trim(strings.TrimSpace(trimmed), fence[:1]) == "" {
				segs = append(segs, segment{text: block.String(), code: true})
				block.Reset()
				fence = ""
			}
			continue
		}
		if f := openingFence(trimmed); f != "" {
			flushProse()
			fence = f
			block.WriteString(line)
			continue
		}
		splitInline(line, &prose, &segs, flushProse)
	}
	if block.Len() > 0 {
		flushProse()
		segs = append(segs, segment{text: block.String(), code: true})
	}
	flushProse()
	return segs
}

func openingFence(line string) string {
	for _, ch := range []string{"`", "~"} {
		n := 0
		for n < len(line) && line[n:n+1] == ch {
			n++
		}
		if n >= 3 {
			return strings.Repeat(ch, n)
		}
	}
	return ""
}

// splitInline moves backtick code spans of line into their own segments.
func splitInline(line string, prose *strings.Builder, segs *[]segment, flushProse func()) {
	for {
		open := strings.IndexByte(line, '`')
		if open < 0 {
			prose.WriteString(line)
			return
		}
		n := 0
		for open+n < len(line) && line[open+n] == '`' {
			n++
		}
		ticks := line[open : open+n]
		closeAt := strings.Index(line[open+n:], ticks)
		if closeAt < 0 {
			prose.WriteString(line)
			return
		}
		end := open + n + closeAt + n
		prose.WriteString(line[:open])
		flushProse()
		*segs = append(*segs, segment{text: line[open:end], code: true})
		line = line[end:]
	}
}
