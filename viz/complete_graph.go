// ABOUTME: Client graph generation linking clients, deals and products
// ABOUTME: Generates a relationship view of every deal in the pipeline
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealflow/models"
)

// GenerateClientGraph creates a graph with a node per client, product and deal.
// Deals sit between the client that owns them and the product they are for.
func GenerateClientGraph(deals []models.Deal) (string, error) {
	return render(context.Background(), graphviz.XDOT, func(graph *cgraph.Graph) error {
		graph.SetLabel("Clients and Products")

		clientNodes := make(map[string]*cgraph.Node)
		productNodes := make(map[string]*cgraph.Node)

		for _, deal := range deals {
			clientNode, ok := clientNodes[deal.ClientName]
			if !ok {
				node, err := graph.CreateNodeByName("client_" + deal.ClientName)
				if err != nil {
					return fmt.Errorf("failed to create client node: %w", err)
				}
				node.SetLabel(fmt.Sprintf("%s\n(Client)", deal.ClientName))
				node.SetShape("box")
				node.SetStyle("filled")
				node.SetFillColor("lightblue")
				clientNodes[deal.ClientName] = node
				clientNode = node
			}

			productNode, ok := productNodes[deal.ProductName]
			if !ok {
				node, err := graph.CreateNodeByName("product_" + deal.ProductName)
				if err != nil {
					return fmt.Errorf("failed to create product node: %w", err)
				}
				node.SetLabel(fmt.Sprintf("%s\n(Product)", deal.ProductName))
				node.SetShape("ellipse")
				node.SetStyle("filled")
				node.SetFillColor("lightgreen")
				productNodes[deal.ProductName] = node
				productNode = node
			}

			dealNode, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			dealNode.SetLabel(fmt.Sprintf("#%d\n(%s)", deal.ID, deal.Stage))
			dealNode.SetShape("diamond")
			dealNode.SetStyle("filled")
			dealNode.SetFillColor("lightyellow")

			edge, err := graph.CreateEdgeByName(fmt.Sprintf("owns_%d", deal.ID), clientNode, dealNode)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")

			edge, err = graph.CreateEdgeByName(fmt.Sprintf("for_%d", deal.ID), dealNode, productNode)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("product")
			edge.SetStyle("dotted")
		}
		return nil
	})
}
