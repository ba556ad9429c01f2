package shopify

// tagsAddMutation 追加订单/商品标签（增量合并，不覆盖已有标签）
const tagsAddMutation = `
mutation addTags($id: ID!, $tags: [String!]!) {
  tagsAdd(id: $id, tags: $tags) {
    userErrors {
      field
      message
    }
  }
}
`

// metafieldsSetMutation 写入 metafield（同键覆盖写，天然幂等）
const metafieldsSetMutation = `
mutation setMetafields($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
      key
    }
    userErrors {
      field
      message
    }
  }
}
`

// inventoryItemUpdateMutation 打开库存追踪开关
const inventoryItemUpdateMutation = `
mutation enableTracking($id: ID!, $input: InventoryItemUpdateInput!) {
  inventoryItemUpdate(id: $id, input: $input) {
    inventoryItem {
      id
      tracked
    }
    userErrors {
      field
      message
    }
  }
}
`

// inventoryActivateMutation 在指定仓位激活库存项（设置数量的前置条件）
const inventoryActivateMutation = `
mutation activateInventory($inventoryItemId: ID!, $locationId: ID!) {
  inventoryActivate(inventoryItemId: $inventoryItemId, locationId: $locationId) {
    inventoryLevel {
      id
    }
    userErrors {
      field
      message
    }
  }
}
`

// inventorySetOnHandMutation 设置指定仓位的在手数量
const inventorySetOnHandMutation = `
mutation setOnHand($input: InventorySetOnHandQuantitiesInput!) {
  inventorySetOnHandQuantities(input: $input) {
    userErrors {
      field
      message
    }
  }
}
`

// inventoryAdjustMutation 按差值修正在手数量（最终一致性兜底，仅调用一次）
const inventoryAdjustMutation = `
mutation adjustOnHand($input: InventoryAdjustQuantitiesInput!) {
  inventoryAdjustQuantities(input: $input) {
    userErrors {
      field
      message
    }
  }
}
`
