// Package engine runs layout scripts. A script is zygomys Lisp evaluated
// in a sandbox; its builtins place lumber into a fresh store.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/rs/zerolog/log"

	"github.com/chazu/lumberyard/pkg/store"
)

// EvalError is a non-fatal problem in the script itself, such as a parse
// error or a bad builtin argument.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts. It is safe for concurrent use; every call gets
// its own sandbox and store.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	opts       []store.Option
}

// NewEngine returns an engine whose stores are built with opts.
func NewEngine(opts ...store.Option) *Engine {
	return &Engine{opts: opts}
}

// Evaluate runs source and returns the pieces it placed.
//
//   - success: store, nil, nil
//   - script error: nil, eval errors, nil
//   - timeout, panic or a newer call: nil, nil, error
func (e *Engine) Evaluate(source string) (*store.Store, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{store: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*store.Store, []EvalError, error) {
	s := store.New(e.opts...)
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	log.Debug().Int("lumbers", s.Len()).Msg("script evaluated")
	return s, nil, nil
}

// linePattern matches "Error on line N: ..." from the zygomys parser. The
// detail may run over several lines.
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError pulls a line number out of a zygomys error when it has
// one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
