package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== 领域类型 ====================

// MetafieldInput 写入 metafield 的入参
type MetafieldInput struct {
	Namespace string
	Key       string
	Type      string // json / boolean / date_time / single_line_text_field
	Value     string
}

// UpdateOrderInput 订单更新入参：标签增量合并 + metafield 覆盖写
type UpdateOrderInput struct {
	OrderGID   string
	AddTags    []string
	Metafields []MetafieldInput
}

// ProductTags 商品标签查询结果
type ProductTags struct {
	GID    string
	Handle string
	Tags   []string
}

// InventoryLevel 单个仓位的在手库存
type InventoryLevel struct {
	LocationGID  string
	LocationName string
	OnHand       int
}

// VariantInventory 商品首个变体的库存视图
type VariantInventory struct {
	VariantGID       string
	InventoryItemGID string
	Tracked          bool
	Levels           []InventoryLevel
}

// OnHandAt 返回指定仓位的在手数量，未激活时返回 (0, false)
func (v *VariantInventory) OnHandAt(locationGID string) (int, bool) {
	for _, lvl := range v.Levels {
		if lvl.LocationGID == locationGID {
			return lvl.OnHand, true
		}
	}
	return 0, false
}

type userError struct {
	Field   json.RawMessage `json:"field"`
	Message string          `json:"message"`
}

// ==================== Gateway ====================

// Gateway Shopify 网关：对账引擎消费的强类型操作集合
type Gateway struct {
	client *Client
	logger *zap.Logger
}

// NewGateway 创建 Shopify 网关
func NewGateway(client *Client, logger *zap.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger.Named("shopify_gateway"),
	}
}

// GetOrderMetafield 读取订单 metafield 的值，不存在时返回空串
func (g *Gateway) GetOrderMetafield(ctx context.Context, orderGID, namespace, key string) (string, error) {
	data, err := g.client.Execute(ctx, orderMetafieldQuery, map[string]interface{}{
		"id":        orderGID,
		"namespace": namespace,
		"key":       key,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Order *struct {
			Metafield *struct {
				Value string `json:"value"`
			} `json:"metafield"`
		} `json:"order"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("解析订单 metafield 失败: %w", err)
	}
	if resp.Order == nil || resp.Order.Metafield == nil {
		return "", nil
	}
	return resp.Order.Metafield.Value, nil
}

// UpdateOrder 给订单追加标签并写入 metafield，两步均为幂等操作
func (g *Gateway) UpdateOrder(ctx context.Context, input UpdateOrderInput) error {
	if len(input.AddTags) > 0 {
		data, err := g.client.Execute(ctx, tagsAddMutation, map[string]interface{}{
			"id":   input.OrderGID,
			"tags": input.AddTags,
		})
		if err != nil {
			return err
		}
		var resp struct {
			TagsAdd struct {
				UserErrors []userError `json:"userErrors"`
			} `json:"tagsAdd"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("解析 tagsAdd 响应失败: %w", err)
		}
		if len(resp.TagsAdd.UserErrors) > 0 {
			return apperrors.NewExternalServiceError("shopify", "USER_ERROR",
				resp.TagsAdd.UserErrors[0].Message, nil)
		}
	}

	if len(input.Metafields) > 0 {
		metafields := make([]map[string]interface{}, 0, len(input.Metafields))
		for _, mf := range input.Metafields {
			metafields = append(metafields, map[string]interface{}{
				"ownerId":   input.OrderGID,
				"namespace": mf.Namespace,
				"key":       mf.Key,
				"type":      mf.Type,
				"value":     mf.Value,
			})
		}
		data, err := g.client.Execute(ctx, metafieldsSetMutation, map[string]interface{}{
			"metafields": metafields,
		})
		if err != nil {
			return err
		}
		var resp struct {
			MetafieldsSet struct {
				UserErrors []userError `json:"userErrors"`
			} `json:"metafieldsSet"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("解析 metafieldsSet 响应失败: %w", err)
		}
		if len(resp.MetafieldsSet.UserErrors) > 0 {
			return apperrors.NewExternalServiceError("shopify", "USER_ERROR",
				resp.MetafieldsSet.UserErrors[0].Message, nil)
		}
	}

	return nil
}

// GetProductTags 读取商品标签
func (g *Gateway) GetProductTags(ctx context.Context, productGID string) (*ProductTags, error) {
	data, err := g.client.Execute(ctx, productTagsQuery, map[string]interface{}{
		"id": productGID,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Product *struct {
			ID     string   `json:"id"`
			Handle string   `json:"handle"`
			Tags   []string `json:"tags"`
		} `json:"product"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("解析商品标签失败: %w", err)
	}
	if resp.Product == nil {
		return nil, nil
	}
	return &ProductTags{
		GID:    resp.Product.ID,
		Handle: resp.Product.Handle,
		Tags:   resp.Product.Tags,
	}, nil
}

// GetVariantInventory 读取商品首个变体的库存项与各仓位库存
func (g *Gateway) GetVariantInventory(ctx context.Context, productGID string) (*VariantInventory, error) {
	data, err := g.client.Execute(ctx, productInventoryQuery, map[string]interface{}{
		"id": productGID,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Product *struct {
			Variants struct {
				Edges []struct {
					Node struct {
						ID            string `json:"id"`
						InventoryItem struct {
							ID              string `json:"id"`
							Tracked         bool   `json:"tracked"`
							InventoryLevels struct {
								Edges []struct {
									Node struct {
										Location struct {
											ID   string `json:"id"`
											Name string `json:"name"`
										} `json:"location"`
										Quantities []struct {
											Name     string `json:"name"`
											Quantity int    `json:"quantity"`
										} `json:"quantities"`
									} `json:"node"`
								} `json:"edges"`
							} `json:"inventoryLevels"`
						} `json:"inventoryItem"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"variants"`
		} `json:"product"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("解析商品库存失败: %w", err)
	}
	if resp.Product == nil || len(resp.Product.Variants.Edges) == 0 {
		return nil, nil
	}

	node := resp.Product.Variants.Edges[0].Node
	result := &VariantInventory{
		VariantGID:       node.ID,
		InventoryItemGID: node.InventoryItem.ID,
		Tracked:          node.InventoryItem.Tracked,
	}
	for _, edge := range node.InventoryItem.InventoryLevels.Edges {
		lvl := InventoryLevel{
			LocationGID:  edge.Node.Location.ID,
			LocationName: edge.Node.Location.Name,
		}
		for _, q := range edge.Node.Quantities {
			if q.Name == "on_hand" {
				lvl.OnHand = q.Quantity
			}
		}
		result.Levels = append(result.Levels, lvl)
	}
	return result, nil
}

// EnableInventoryTracking 打开库存追踪，后端异步生效
func (g *Gateway) EnableInventoryTracking(ctx context.Context, inventoryItemGID string) error {
	data, err := g.client.Execute(ctx, inventoryItemUpdateMutation, map[string]interface{}{
		"id":    inventoryItemGID,
		"input": map[string]interface{}{"tracked": true},
	})
	if err != nil {
		return err
	}
	return g.checkUserErrors(data, "inventoryItemUpdate")
}

// ActivateInventoryAtLocation 在指定仓位激活库存项，后端异步生效
func (g *Gateway) ActivateInventoryAtLocation(ctx context.Context, inventoryItemGID, locationGID string) error {
	data, err := g.client.Execute(ctx, inventoryActivateMutation, map[string]interface{}{
		"inventoryItemId": inventoryItemGID,
		"locationId":      locationGID,
	})
	if err != nil {
		return err
	}
	return g.checkUserErrors(data, "inventoryActivate")
}

// SetOnHandQuantity 将指定仓位的在手数量设置为给定值
// userErrors 非空视为本次同步失败，不假定部分成功
func (g *Gateway) SetOnHandQuantity(ctx context.Context, inventoryItemGID, locationGID string, quantity int, reason string) error {
	data, err := g.client.Execute(ctx, inventorySetOnHandMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"reason": reason,
			"setQuantities": []map[string]interface{}{
				{
					"inventoryItemId": inventoryItemGID,
					"locationId":      locationGID,
					"quantity":        quantity,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	return g.checkUserErrors(data, "inventorySetOnHandQuantities")
}

// AdjustOnHandQuantity 按差值修正在手数量（一次性兜底修正）
func (g *Gateway) AdjustOnHandQuantity(ctx context.Context, inventoryItemGID, locationGID string, delta int, reason string) error {
	data, err := g.client.Execute(ctx, inventoryAdjustMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"reason": reason,
			"name":   "on_hand",
			"changes": []map[string]interface{}{
				{
					"inventoryItemId": inventoryItemGID,
					"locationId":      locationGID,
					"delta":           delta,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	return g.checkUserErrors(data, "inventoryAdjustQuantities")
}

// FindOrderGIDByTag 按标签精确检索订单，未命中返回空串
func (g *Gateway) FindOrderGIDByTag(ctx context.Context, tag string) (string, error) {
	data, err := g.client.Execute(ctx, orderByTagQuery, map[string]interface{}{
		"query": fmt.Sprintf("tag:'%s'", tag),
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Orders struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("解析订单检索结果失败: %w", err)
	}
	if len(resp.Orders.Edges) == 0 {
		return "", nil
	}
	return resp.Orders.Edges[0].Node.ID, nil
}

// checkUserErrors 提取变更响应中第一层 payload 的 userErrors
func (g *Gateway) checkUserErrors(data json.RawMessage, field string) error {
	var raw map[string]struct {
		UserErrors []userError `json:"userErrors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", field, err)
	}
	payload, ok := raw[field]
	if !ok {
		return nil
	}
	if len(payload.UserErrors) > 0 {
		g.logger.Warn("Shopify 变更返回 userErrors",
			zap.String("mutation", field),
			zap.String("message", payload.UserErrors[0].Message))
		return apperrors.NewExternalServiceError("shopify", "USER_ERROR",
			payload.UserErrors[0].Message, nil)
	}
	return nil
}
