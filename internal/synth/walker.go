package synth

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/spec"
)

const (
	controllerSuffix = "-controller"
	idPlaceholder    = "{id}"
)

// ControllerName is the folder an operation is filed under: its first tag
// without the "-controller" suffix.
func ControllerName(op spec.Operation) (string, bool) {
	if len(op.Tags) == 0 {
		return "", false
	}
	return strings.TrimSuffix(op.Tags[0], controllerSuffix), true
}

// SubstituteID replaces every {id} placeholder in path with id.
func SubstituteID(path string, id int64) string {
	return strings.ReplaceAll(path, idPlaceholder, strconv.FormatInt(id, 10))
}

// folders is an insert-if-absent index over a root's children. Positions
// are stored rather than pointers because appends may move the slice.
type folders struct {
	root  *collection.Item
	index map[string]int
}

func newFolders(root *collection.Item) *folders {
	return &folders{root: root, index: map[string]int{}}
}

// ensure returns the folder named name, appending it on first sight.
func (f *folders) ensure(name string) (*collection.Item, bool) {
	if i, ok := f.index[name]; ok {
		return &f.root.Item[i], false
	}
	f.root.Item = append(f.root.Item, collection.Item{Name: name, Item: []collection.Item{}})
	f.index[name] = len(f.root.Item) - 1
	return &f.root.Item[len(f.root.Item)-1], true
}

type walker struct {
	doc    *spec.SourceDocument
	synth  *Synthesizer
	weaver *Weaver
	long   int64
	log    *slog.Logger
}

// populate fills root with the bootstrap items followed by one folder per
// controller, in first-occurrence order.
func (w *walker) populate(root *collection.Item, urlKey string) error {
	boot, err := Bootstrap(urlKey)
	if err != nil {
		return err
	}
	root.Item = append(root.Item, boot...)

	idx := newFolders(root)
	for _, pi := range w.doc.Paths {
		for _, op := range pi.Operations {
			controller, ok := ControllerName(op)
			if !ok {
				return &SchemaResolutionError{Path: op.Path, Method: string(op.Method), Reason: "operation has no tags"}
			}
			req, err := w.synth.Request(op, string(op.Method), SubstituteID(op.Path, w.long), urlKey)
			if err != nil {
				return err
			}
			item := collection.Item{Name: op.Summary, Request: req}
			rule := w.weaver.Weave(Target{Controller: controller, Op: op, Item: &item})

			folder, created := idx.ensure(controller)
			if created {
				w.log.Debug("controller folder created", "root", root.Name, "folder", controller)
			}
			folder.Item = append(folder.Item, item)
			w.log.Debug("request synthesized",
				"root", root.Name, "folder", controller, "name", item.Name,
				"method", req.Method, "path", op.Path, "rule", rule)
		}
	}
	return nil
}
