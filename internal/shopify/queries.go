package shopify

// ShopQuery is the cheapest authenticated query
const ShopQuery = `
query Shop {
  shop {
    id
    name
  }
}
`

const productVariantFragment = `
fragment ProductVariant on ProductVariant {
  availableForSale
  compareAtPrice {
    amount
    currencyCode
  }
  id
  image {
    id
    url
    altText
    width
    height
  }
  price {
    amount
    currencyCode
  }
  selectedOptions {
    name
    value
  }
  sku
  title
}
`

const productCardFragment = `
fragment ProductCard on Product {
  id
  handle
  title
  productType
  featuredImage {
    id
    altText
    url
    width
    height
  }
  priceRange {
    minVariantPrice {
      amount
      currencyCode
    }
    maxVariantPrice {
      amount
      currencyCode
    }
  }
  variants(first: 1) {
    nodes {
      selectedOptions {
        name
        value
      }
    }
  }
  galleryMetafield: metafield(namespace: "custom", key: "gallery_images") {
    namespace
    key
    value
    type
  }
}
`

// ProductQuery fetches the critical product data, resolving the variant from the URL's selected options
const ProductQuery = `
query Product(
  $country: CountryCode
  $handle: String!
  $language: LanguageCode
  $selectedOptions: [SelectedOptionInput!]!
) @inContext(country: $country, language: $language) {
  product(handle: $handle) {
    id
    title
    vendor
    handle
    productType
    descriptionHtml
    description
    images(first: 10) {
      nodes {
        id
        url
        altText
        width
        height
      }
    }
    materialMetafield: metafield(namespace: "shopify", key: "jewelry-material") {
      id
      namespace
      key
      value
    }
    options {
      name
      values
    }
    selectedVariant: variantBySelectedOptions(selectedOptions: $selectedOptions, ignoreUnknownOptions: true, caseInsensitiveMatch: true) {
      ...ProductVariant
    }
    variants(first: 1) {
      nodes {
        ...ProductVariant
      }
    }
    seo {
      description
      title
    }
  }
}
` + productVariantFragment

// ProductVariantsQuery fetches every variant; it is deferred below the fold
const ProductVariantsQuery = `
query ProductVariants(
  $country: CountryCode
  $language: LanguageCode
  $handle: String!
) @inContext(country: $country, language: $language) {
  product(handle: $handle) {
    variants(first: 250) {
      nodes {
        ...ProductVariant
      }
    }
  }
}
` + productVariantFragment

// ProductRecommendationsQuery fetches related products
const ProductRecommendationsQuery = `
query ProductRecommendations(
  $country: CountryCode
  $language: LanguageCode
  $productId: ID!
) @inContext(country: $country, language: $language) {
  productRecommendations(productId: $productId, intent: RELATED) {
    id
    title
    handle
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
    }
    images(first: 1) {
      nodes {
        url
        altText
      }
    }
  }
}
`

// MetaobjectQuery resolves a material metaobject by id
const MetaobjectQuery = `
query Metaobject($id: ID!) {
  metaobject(id: $id) {
    id
    type
    fields {
      key
      value
    }
  }
}
`

// CollectionQuery fetches a collection and one page of its products
const CollectionQuery = `
query Collection(
  $handle: String!
  $country: CountryCode
  $language: LanguageCode
  $first: Int
  $last: Int
  $startCursor: String
  $endCursor: String
) @inContext(country: $country, language: $language) {
  collection(handle: $handle) {
    id
    handle
    title
    description
    products(first: $first, last: $last, before: $startCursor, after: $endCursor) {
      nodes {
        ...ProductCard
      }
      pageInfo {
        hasPreviousPage
        hasNextPage
        endCursor
        startCursor
      }
    }
  }
}
` + productCardFragment

// CatalogQuery fetches filtered, sorted products across the whole shop
const CatalogQuery = `
query Catalog(
  $country: CountryCode
  $language: LanguageCode
  $first: Int
  $last: Int
  $startCursor: String
  $endCursor: String
  $query: String
  $sortKey: ProductSortKeys
  $sortReverse: Boolean
) @inContext(country: $country, language: $language) {
  products(first: $first, last: $last, before: $startCursor, after: $endCursor, query: $query, sortKey: $sortKey, reverse: $sortReverse) {
    nodes {
      ...ProductCard
    }
    pageInfo {
      hasPreviousPage
      hasNextPage
      startCursor
      endCursor
    }
  }
}
` + productCardFragment

// FeaturedCollectionQuery fetches the most recently updated collection
const FeaturedCollectionQuery = `
query FeaturedCollection($country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  collections(first: 1, sortKey: UPDATED_AT, reverse: true) {
    nodes {
      id
      title
      handle
      image {
        id
        url
        altText
        width
        height
      }
    }
  }
}
`

// RecommendedProductsQuery fetches the newest products for the landing page
const RecommendedProductsQuery = `
query RecommendedProducts($country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  products(first: 4, sortKey: UPDATED_AT, reverse: true) {
    nodes {
      ...ProductCard
    }
  }
}
` + productCardFragment

const menuItemFragment = `
fragment MenuItem on MenuItem {
  id
  title
  type
  url
}
`

// HeaderQuery fetches shop identity and the main navigation menu
const HeaderQuery = `
query Header(
  $country: CountryCode
  $headerMenuHandle: String!
  $language: LanguageCode
) @inContext(language: $language, country: $country) {
  shop {
    id
    name
    primaryDomain {
      url
    }
  }
  menu(handle: $headerMenuHandle) {
    id
    items {
      ...MenuItem
      items {
        ...MenuItem
        items {
          ...MenuItem
        }
      }
    }
  }
}
` + menuItemFragment

// FeedProductsQuery fetches products with variants for the merchant feed
const FeedProductsQuery = `
query ProductsForGoogleFeed($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      id
      handle
      title
      description
      tags
      images(first: 5) {
        nodes {
          url
          altText
        }
      }
      variants(first: 50) {
        nodes {
          id
          title
          sku
          availableForSale
          image {
            url
            altText
          }
          price {
            amount
            currencyCode
          }
          selectedOptions {
            name
            value
          }
        }
      }
    }
  }
}
`

const cartFragment = `
fragment Cart on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount {
      amount
      currencyCode
    }
    totalAmount {
      amount
      currencyCode
    }
  }
  lines(first: 100) {
    nodes {
      id
      quantity
      cost {
        totalAmount {
          amount
          currencyCode
        }
      }
      merchandise {
        ... on ProductVariant {
          id
          title
          availableForSale
          price {
            amount
            currencyCode
          }
          image {
            id
            url
            altText
            width
            height
          }
          selectedOptions {
            name
            value
          }
          product {
            title
            handle
          }
        }
      }
    }
  }
}
`

// CartQuery fetches a cart by id
const CartQuery = `
query Cart($cartId: ID!, $country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  cart(id: $cartId) {
    ...Cart
  }
}
` + cartFragment

// CartCreateMutation creates a cart with initial lines
const CartCreateMutation = `
mutation CartCreate($input: CartInput!, $country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  cartCreate(input: $input) {
    cart {
      ...Cart
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFragment

// CartLinesAddMutation adds merchandise lines
const CartLinesAddMutation = `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!, $country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart {
      ...Cart
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFragment

// CartLinesUpdateMutation changes line quantities
const CartLinesUpdateMutation = `
mutation CartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!, $country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart {
      ...Cart
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFragment

// CartLinesRemoveMutation removes lines by id
const CartLinesRemoveMutation = `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!, $country: CountryCode, $language: LanguageCode)
  @inContext(country: $country, language: $language) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart {
      ...Cart
    }
    userErrors {
      field
      message
    }
  }
}
` + cartFragment
