package shopify

// orderMetafieldQuery 读取订单上指定命名空间/键的 metafield
const orderMetafieldQuery = `
query getOrderMetafield($id: ID!, $namespace: String!, $key: String!) {
  order(id: $id) {
    metafield(namespace: $namespace, key: $key) {
      id
      value
    }
  }
}
`

// productTagsQuery 读取商品标签（自动关联时查找 bunjang_pid:<id> 标签）
const productTagsQuery = `
query getProductTags($id: ID!) {
  product(id: $id) {
    id
    handle
    tags
  }
}
`

// productInventoryQuery 读取商品首个变体及其库存项、各仓位库存水平
const productInventoryQuery = `
query getProductInventory($id: ID!) {
  product(id: $id) {
    id
    variants(first: 1) {
      edges {
        node {
          id
          inventoryItem {
            id
            tracked
            inventoryLevels(first: 20) {
              edges {
                node {
                  location {
                    id
                    name
                  }
                  quantities(names: ["on_hand"]) {
                    name
                    quantity
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}
`

// orderByTagQuery 按标签精确检索订单（状态轮询反查 BunjangOrder-<id> 标签）
const orderByTagQuery = `
query findOrderByTag($query: String!) {
  orders(first: 1, query: $query) {
    edges {
      node {
        id
        name
      }
    }
  }
}
`
