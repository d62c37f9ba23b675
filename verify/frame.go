// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

// FrameCRC is the CRC-32 of Frame.
const FrameCRC = 0x99f69cd9

// Frame is the 256-word reference frame.
var Frame = Block{
	0x54ec0525, 0x447135b2, 0x6eed86f9, 0x10b9ee76, 0x9c5c8f55, 0x44c8f0a0, 0x9f5c41d3, 0x4a6c8ef3,
	0x3cb43ac2, 0x9a9e6ca4, 0xa296d5a0, 0x2be2ef95, 0x7501b963, 0x2906ad29, 0xe695df1e, 0xa1e3c9e8,
	0x907339c8, 0xf205c7a7, 0xd6de4d18, 0xb6a9d7d5, 0x79f98f63, 0x467f7a6e, 0x11b5b005, 0x69b97842,
	0xd1b9129c, 0xddba1e26, 0x42e421ef, 0xa8bedde7, 0x33995d90, 0xc639d14d, 0xac58e5ed, 0x5d71fe17,
	0xee1cdf08, 0x3d5e0d81, 0xacb04fa7, 0x7fd4ce83, 0x6be85d52, 0x02eb1a5a, 0x24cc89dc, 0x37f18392,
	0x56c886e7, 0x9c8bcc4c, 0xbb3475da, 0x0424f800, 0x404a14f4, 0x41d7b9a4, 0x8f97d2b4, 0x16d928c5,
	0x2c059085, 0xc1bacf2d, 0xe3a582fe, 0x48ed877c, 0xc2be6bbb, 0x3f83c7ef, 0x752ce9cb, 0x0d1e01ca,
	0x02ecdf82, 0x3d45f86b, 0xb359203d, 0x611a60e6, 0x3fe3b879, 0x34e81b39, 0x5b761930, 0x869ec1a5,
	0xbf58005d, 0x8b9c20f5, 0x058d22a3, 0x11ab9e24, 0xcc534712, 0xa268feb4, 0x4ea7de22, 0x34dc0414,
	0xf430cb9d, 0x9069905b, 0x3a9487e0, 0x930c11ba, 0x5d9d6ff3, 0x9c3b5b26, 0xd099a501, 0xe55fc72e,
	0x76c54e09, 0x11243967, 0x3b952bd2, 0x0617f2fc, 0x2a14fa99, 0x42b1c525, 0xf9eef4a4, 0xa090f1c3,
	0xfa2480bd, 0x548e7924, 0x2623ce99, 0x544299f4, 0xb902da0e, 0x71725f30, 0x52016afb, 0x95386417,
	0x9ad099ab, 0x12f6e52d, 0x618d04c7, 0xd4ccd8a3, 0x01ab1763, 0x8893836d, 0x3a2d270e, 0x999c0ddf,
	0x06ed62be, 0x887f8de5, 0x20aa3875, 0x22637f43, 0x85419b21, 0x2e54855d, 0xc6d0d493, 0x38e8f00c,
	0x2f463851, 0xa5930018, 0xc108cea8, 0x9d20ae8a, 0x4ea42837, 0x3db7ae94, 0xda364f9b, 0x256f506a,
	0x78273ade, 0x6ac3ce93, 0x0b79a658, 0x6ee19398, 0xa3c157a3, 0x0f90187b, 0xeb4b6797, 0xaf834c40,
	0xcbd6bcbb, 0xc103bc69, 0x5f2e65cc, 0x472aad0b, 0x06911251, 0x87692d91, 0x999eca09, 0xa8e1bf50,
	0x68642547, 0x0b8b4f7e, 0xb0731848, 0x4ed787a3, 0xa9af212e, 0x8d105838, 0xd4a1c0a3, 0xdd03de66,
	0x5675cce7, 0x2b0a99a5, 0x4c2a3071, 0x0635d4f3, 0xd5eba468, 0x77b2cce7, 0xb9b2722f, 0x0457fcfa,
	0xc963d641, 0x2401afca, 0x5f29b15e, 0x616a97d1, 0x82415fa4, 0xe7c0e4a8, 0x2d7138e2, 0xa4dff120,
	0x1301a423, 0xeab3a9b0, 0x432dcefc, 0xdabd708b, 0x832bd129, 0xd7fa5ca1, 0x607cf76c, 0x8d9ea21d,
	0x2dbe329b, 0x7d6fe0b1, 0xcff21250, 0xee449a83, 0x70b84c66, 0x99882725, 0x2487f50a, 0x11dd0b02,
	0x66c457b4, 0xa310227d, 0xf0ef426f, 0x557a1c16, 0x2b42e34d, 0xb2adf3cb, 0x11430900, 0xa768bc11,
	0xfb364887, 0x150b6f3c, 0x3d60cedd, 0x7c54e784, 0xb1ac29ac, 0xc90ba26b, 0xdcd7775c, 0xfd9e7ff8,
	0xd9cd97d1, 0x4858f921, 0x08feda90, 0x2f7fde9e, 0x035323c9, 0x833e9235, 0x7e183785, 0x8de27d17,
	0x35e6c361, 0xead03ba8, 0x3227d1b3, 0x13a0bedf, 0xf77c1edd, 0x61bdc1f3, 0x5270b33b, 0xcd86c8ae,
	0xf4ed9d50, 0x365a767d, 0x0b048cba, 0x8571e3cf, 0xbe7c1d76, 0x677d748f, 0x90c664c4, 0x4a2b89c6,
	0x90748331, 0x7d6ae589, 0xfd8746d1, 0x504b41da, 0x4a98b9d2, 0xd7073e19, 0xf8ae5049, 0xbdf25050,
	0x660b5035, 0x0ffa4172, 0x49cf273d, 0x3c75f234, 0x199fc2a7, 0x114a73a9, 0x446a88be, 0xcd397931,
	0x4c9ac32b, 0x1fd7d8eb, 0x39672ba1, 0xe352ed93, 0xbaca029f, 0xd88b5bae, 0xe8a1ecb5, 0xbf2df783,
	0xddc77dfc, 0x5ea152a1, 0xe08bc11c, 0x923ecdc6, 0x75a7e9ef, 0xabab7297, 0x7edbc951, 0x38ce6f2a,
	0x6e8392a8, 0x88576db6, 0x4124d40e, 0xd58ad161, 0xd667dc29, 0xc3bb310b, 0xb46ded73, 0xfffb622d,
}
