// Package cli contains the kdmesh command line tool: rendering meshes and inspecting the kd-tree
// built over them.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/kdmesh/kdtree"
	"go.viam.com/kdmesh/logging"
)

const (
	// Flags.
	generalFlagDebug     = "debug"
	generalFlagConfig    = "config"
	generalFlagMesh      = "mesh"
	generalFlagOut       = "out"
	indexFlagLeafSize    = "leaf-size"
	indexFlagTriangles   = "triangles"
	renderFlagTracer     = "tracer"
	renderFlagNormalMode = "normal-mode"
	queryFlagOrigin      = "origin"
	queryFlagDirection   = "direction"
	queryFlagLeaves      = "leaves"
	queryFlagFirstBranch = "first-branch"
	exportFlagIndex      = "index"
	exportFlagRender     = "render"
)

var meshFlag = &cli.StringFlag{
	Name:     generalFlagMesh,
	Aliases:  []string{"m"},
	Usage:    "read the mesh from .off or .ply `FILE`",
	Required: true,
}

var indexFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  indexFlagLeafSize,
		Value: kdtree.DefaultLeafSize,
		Usage: "split nodes holding at least this many vertices",
	},
	&cli.BoolFlag{
		Name:  indexFlagTriangles,
		Usage: "list the overlapping triangles in every leaf",
	},
}

var rayFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     queryFlagOrigin,
		Usage:    "ray origin as `X,Y,Z`",
		Required: true,
	},
	&cli.StringFlag{
		Name:     queryFlagDirection,
		Usage:    "ray direction as `X,Y,Z`",
		Required: true,
	},
}

var app = &cli.App{
	Name:            "kdmesh",
	Usage:           "ray trace triangle meshes with a kd-tree",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Before: func(c *cli.Context) error {
		// logs go to ErrWriter so that tables and other output stay clean on Writer
		logger := logging.NewBlankLogger("kdmesh")
		logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
		if c.Bool(generalFlagDebug) {
			logging.EnableDebugMode()
		} else {
			logger.SetLevel(logging.INFO)
		}
		logging.ReplaceGlobal(logger)
		return nil
	},
	Commands: []*cli.Command{
		{
			Name:      "render",
			Usage:     "render a mesh to a .png, .ppm or .qoi image",
			UsageText: "kdmesh render [--config FILE] [--mesh FILE] [--out FILE] [--tracer tree|naive|boxes]",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load render configuration from `FILE`",
				},
				&cli.StringFlag{
					Name:    generalFlagMesh,
					Aliases: []string{"m"},
					Usage:   "read the mesh from .off or .ply `FILE`, overriding the config",
				},
				&cli.StringFlag{
					Name:    generalFlagOut,
					Aliases: []string{"o"},
					Usage:   "write the image to `FILE`, overriding the config",
				},
				&cli.StringFlag{
					Name:  renderFlagTracer,
					Usage: "trace with the tree, every triangle (naive) or draw the tree leaves (boxes)",
				},
				&cli.StringFlag{
					Name:  renderFlagNormalMode,
					Usage: "shade with interpolated vertex normals (phong) or triangle normals (triangle)",
				},
			}, indexFlags...),
			Action: RenderAction,
		},
		{
			Name:   "stats",
			Usage:  "print statistics of the kd-tree built over a mesh",
			Flags:  append([]cli.Flag{meshFlag}, indexFlags...),
			Action: StatsAction,
		},
		{
			Name:  "query",
			Usage: "list the kd-tree nodes a ray crosses, nearest first",
			Flags: append(append([]cli.Flag{meshFlag}, rayFlags...), append([]cli.Flag{
				&cli.BoolFlag{
					Name:  queryFlagLeaves,
					Usage: "only list leaves",
				},
				&cli.BoolFlag{
					Name:  queryFlagFirstBranch,
					Usage: "only follow the nearest branch",
				},
			}, indexFlags...)...),
			Action: QueryAction,
		},
		{
			Name:  "export",
			Usage: "write the part of a mesh under the n-th node a ray crosses as an OFF file",
			Flags: append(append([]cli.Flag{meshFlag}, rayFlags...), append([]cli.Flag{
				&cli.IntFlag{
					Name:  exportFlagIndex,
					Usage: "export the node at position `N` of the query, 0 being the root",
				},
				&cli.StringFlag{
					Name:     generalFlagOut,
					Aliases:  []string{"o"},
					Usage:    "write the sub-mesh to OFF `FILE`",
					Required: true,
				},
				&cli.StringFlag{
					Name:  exportFlagRender,
					Usage: "also render the sub-mesh to image `FILE`",
				},
				&cli.StringFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "take the camera of the render from `FILE`",
				},
			}, indexFlags...)...),
			Action: ExportAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
