package commands

import (
	"fmt"
	"sort"

	"github.com/mosaicnetworks/stdionode/src/behavior/echo"
	"github.com/mosaicnetworks/stdionode/src/behavior/generate"
	"github.com/mosaicnetworks/stdionode/src/node"
	"github.com/sirupsen/logrus"
)

type behaviorFactory func(logger *logrus.Entry) node.Behavior

var behaviors = map[string]behaviorFactory{
	echo.Name: func(logger *logrus.Entry) node.Behavior {
		return echo.NewBehavior(logger)
	},
	generate.Name: func(logger *logrus.Entry) node.Behavior {
		return generate.NewBehavior(logger)
	},
}

// newBehavior instantiates the behavior registered under name.
func newBehavior(name string, logger *logrus.Entry) (node.Behavior, error) {
	factory, ok := behaviors[name]
	if !ok {
		return nil, fmt.Errorf("unknown behavior %q, available: %v", name, behaviorNames())
	}
	return factory(logger), nil
}

func behaviorNames() []string {
	names := make([]string, 0, len(behaviors))
	for name := range behaviors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
